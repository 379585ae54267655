package fileutil

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyFileMode streams src to dst, replacing it, and leaves dst with
// exactly the given permission bits. The data lands in a temporary file
// beside dst that is renamed into place, so a failed copy leaves any
// existing dst untouched.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	tmp, err := copyToTemp(src, dst, mode)
	if err != nil {
		return err
	}
	return commit(tmp, dst)
}

// CopyFileVerified is CopyFileMode with the copied bytes re-read and their
// SHA256 digest compared against src before dst is replaced.
func CopyFileVerified(src, dst string, mode os.FileMode) error {
	tmp, err := copyToTemp(src, dst, mode)
	if err != nil {
		return err
	}
	srcSum, err := digest(src)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("hash source: %w", err)
	}
	tmpSum, err := digest(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("hash destination: %w", err)
	}
	if !bytes.Equal(srcSum, tmpSum) {
		_ = os.Remove(tmp)
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return commit(tmp, dst)
}

func copyToTemp(src, dst string, mode os.FileMode) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return "", err
	}
	tmp := out.Name()
	fail := func(err error) (string, error) {
		out.Close()
		_ = os.Remove(tmp)
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		return fail(err)
	}
	if err := out.Chmod(mode); err != nil {
		return fail(fmt.Errorf("chmod %s: %w", dst, err))
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func commit(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// SameContent reports whether a and b hold byte-identical content. A missing
// b is reported as false without error; a missing a is an error.
func SameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	ra := bufio.NewReader(fa)
	rb := bufio.NewReader(fb)
	bufA := make([]byte, 32*1024)
	bufB := make([]byte, 32*1024)
	for {
		na, errA := io.ReadFull(ra, bufA)
		nb, errB := io.ReadFull(rb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		doneB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
		if doneA || doneB {
			return doneA && doneB, nil
		}
	}
}

func digest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
