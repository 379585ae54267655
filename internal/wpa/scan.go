package wpa

import (
	"bufio"
	"bytes"
	"sort"
	"strconv"
	"strings"
)

// Peer is one access point from wpa_cli scan_results.
type Peer struct {
	BSSID     string
	Frequency int
	Signal    int
	Flags     string
	SSID      string
}

// SupportsWPS reports whether the access point advertises WPS.
func (p Peer) SupportsWPS() bool {
	return strings.Contains(p.Flags, "WPS")
}

// ParseScanResults parses the tab-separated scan_results table. The header
// and malformed rows are skipped.
func ParseScanResults(out []byte) []Peer {
	var peers []Peer
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 4 {
			continue
		}
		freq, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			continue
		}
		peer := Peer{
			BSSID:     strings.TrimSpace(fields[0]),
			Frequency: freq,
			Signal:    signal,
			Flags:     fields[3],
		}
		if len(fields) > 4 {
			peer.SSID = fields[len(fields)-1]
		}
		peers = append(peers, peer)
	}
	return peers
}

// StrongestWPS picks the WPS-capable peer with the highest signal level.
// Ties keep scan order.
func StrongestWPS(peers []Peer) (Peer, bool) {
	candidates := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if p.SupportsWPS() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Peer{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Signal > candidates[j].Signal
	})
	return candidates[0], true
}
