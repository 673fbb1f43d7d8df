package fallback

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matriforce/dispatch/core/intake"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/infra/logger"
	"github.com/matriforce/dispatch/infra/memstore"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		id, reporter string
		lat, lon     float64
	}{
		{"case-1", "reporter-1", 23.7461, 90.3742},
		{PlaceholderID("uid42"), "uid42", -33.86882, 151.20929},
		{"c", "r", 0, 0},
		{"c", "r", -89.99999, -179.99999},
	}
	for _, tc := range cases {
		payload, err := Encode(tc.id, tc.reporter, model.Location{Latitude: tc.lat, Longitude: tc.lon})
		if err != nil {
			t.Fatalf("encode %v: %v", tc, err)
		}
		if len(payload) > MaxPayloadLen {
			t.Fatalf("payload too long: %d", len(payload))
		}
		got, err := Decode(payload)
		if err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
		if got.CaseID != tc.id || got.ReporterID != tc.reporter {
			t.Fatalf("identity mismatch: %+v", got)
		}
		if math.Abs(got.Location.Latitude-tc.lat) > 1e-5 || math.Abs(got.Location.Longitude-tc.lon) > 1e-5 {
			t.Fatalf("coordinate drift: %+v", got.Location)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	good, err := Encode("case-1", "reporter-1", model.Location{Latitude: 23.7461, Longitude: 90.3742})
	if err != nil {
		t.Fatal(err)
	}
	bad := []string{
		"",
		"garbage",
		"SOS2|case-1|reporter-1|23.74610|90.37420|deadbeef",     // wrong version
		"SOS1|case-1|reporter-1|23.74610|90.37420",              // missing checksum
		"SOS1|case-1|reporter-1|north|90.37420|deadbeef",        // bad latitude
		"SOS1|case-1|reporter-1|23.74610|90.37420|zzzz",         // bad checksum field
		strings.Replace(good, "reporter-1", "reporter-2", 1),    // checksum mismatch
		"SOS1||reporter-1|23.74610|90.37420|deadbeef",           // empty id
		good + "|extra",                                         // extra field
	}
	for _, payload := range bad {
		if _, err := Decode(payload); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("decode %q: expected ErrMalformedPayload, got %v", payload, err)
		}
	}
}

func TestEncodeRejectsSeparatorInIdentifiers(t *testing.T) {
	_, err := Encode("a|b", "r", model.Location{})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestGatewayReplaysIntoIntake(t *testing.T) {
	region := model.Region{MinLatitude: 20, MaxLatitude: 27, MinLongitude: 88, MaxLongitude: 93}
	in := intake.New(memstore.NewCaseStore(), region, nil, logger.NopLogger{})
	gw := NewGateway(in, nil, logger.NopLogger{})
	ctx := context.Background()

	payload, err := Encode(PlaceholderID("uid42"), "uid42", model.Location{Latitude: 23.7461, Longitude: 90.3742})
	if err != nil {
		t.Fatal(err)
	}
	c, err := gw.DecodeAndSubmit(ctx, payload)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if c.Channel != model.ChannelOfflineFallback || c.State != model.StatePending {
		t.Fatalf("unexpected case %+v", c)
	}

	// The device regains connectivity and submits online: no double-casing.
	online, err := in.Submit(ctx, "uid42", model.Location{Latitude: 23.7461, Longitude: 90.3742}, model.ChannelOnline)
	if err != nil {
		t.Fatal(err)
	}
	if online.ID != c.ID {
		t.Fatalf("duplicate case created: %s vs %s", online.ID, c.ID)
	}

	if _, err := gw.DecodeAndSubmit(ctx, "garbage"); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
