// Package fallback encodes distress signals into a compact text payload for
// delivery over a low-bandwidth channel when the primary path is down, and
// decodes them back at the relay gateway. The format is versioned and small
// enough for a single SMS.
package fallback

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/matriforce/dispatch/core/model"
)

// ErrMalformedPayload is returned when a payload fails to decode. Malformed
// data cannot self-correct, so it is never retried.
var ErrMalformedPayload = errors.New("fallback: malformed payload")

const (
	// versionTag prefixes every payload for forward compatibility.
	versionTag = "SOS1"

	// MaxPayloadLen is the single-SMS size limit.
	MaxPayloadLen = 140

	sep        = "|"
	fieldCount = 6
)

// PlaceholderID derives the case placeholder used when the device could not
// mint a real case ID. Intake deduplication collapses it with any later
// online submission from the same reporter.
func PlaceholderID(reporterID string) string {
	return "offline-" + reporterID
}

// Payload is the decoded content of a fallback message.
type Payload struct {
	CaseID     string
	ReporterID string
	Location   model.Location
}

// Encode renders the signal as a versioned, checksummed text payload.
// Coordinates are truncated to five decimal places (about one meter), which
// keeps the payload well inside a single SMS.
func Encode(caseID, reporterID string, loc model.Location) (string, error) {
	body := strings.Join([]string{
		caseID,
		reporterID,
		strconv.FormatFloat(loc.Latitude, 'f', 5, 64),
		strconv.FormatFloat(loc.Longitude, 'f', 5, 64),
	}, sep)
	if strings.Contains(caseID, sep) || strings.Contains(reporterID, sep) {
		return "", fmt.Errorf("identifier contains separator: %w", ErrMalformedPayload)
	}
	sum := crc32.ChecksumIEEE([]byte(body))
	payload := versionTag + sep + body + sep + strconv.FormatUint(uint64(sum), 16)
	if len(payload) > MaxPayloadLen {
		return "", fmt.Errorf("payload %d bytes exceeds the SMS limit: %w", len(payload), ErrMalformedPayload)
	}
	return payload, nil
}

// Decode parses a payload produced by Encode. Version mismatch, missing
// fields, unparseable numbers and checksum mismatch all fail with
// ErrMalformedPayload.
func Decode(payload string) (Payload, error) {
	parts := strings.Split(payload, sep)
	if len(parts) != fieldCount {
		return Payload{}, fmt.Errorf("expected %d fields, got %d: %w", fieldCount, len(parts), ErrMalformedPayload)
	}
	if parts[0] != versionTag {
		return Payload{}, fmt.Errorf("version %q: %w", parts[0], ErrMalformedPayload)
	}
	body := strings.Join(parts[1:5], sep)
	sum, err := strconv.ParseUint(parts[5], 16, 32)
	if err != nil {
		return Payload{}, fmt.Errorf("checksum field: %w", ErrMalformedPayload)
	}
	if crc32.ChecksumIEEE([]byte(body)) != uint32(sum) {
		return Payload{}, fmt.Errorf("checksum mismatch: %w", ErrMalformedPayload)
	}
	lat, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return Payload{}, fmt.Errorf("latitude: %w", ErrMalformedPayload)
	}
	lon, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return Payload{}, fmt.Errorf("longitude: %w", ErrMalformedPayload)
	}
	if parts[1] == "" || parts[2] == "" {
		return Payload{}, fmt.Errorf("empty identifier: %w", ErrMalformedPayload)
	}
	return Payload{
		CaseID:     parts[1],
		ReporterID: parts[2],
		Location:   model.Location{Latitude: lat, Longitude: lon},
	}, nil
}
