package bookingstore

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/voxbook/pkg/types"
)

// BookingsFile is the on-disk shape of a booking snapshot:
//
//	bookings:
//	  - id: b1
//	    team_id: t1
//	    event_name: Standup
//	    start_date_time: 2026-01-15T09:00:00Z
//	    end_date_time: 2026-01-15T09:30:00Z
//	  - id: b2
//	    team_id: t1
//	    event_name: Offsite
//	    date: "2026-01-16"
//	    start_time: "00:00"
//	    end_time: "23:59"
//	    is_whole_day: true
type BookingsFile struct {
	Bookings []types.ExistingBooking `yaml:"bookings"`
}

// LoadBookingsFile reads a [BookingsFile] from path.
func LoadBookingsFile(path string) ([]types.ExistingBooking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: open %q: %w", path, err)
	}
	defer f.Close()

	bs, err := LoadBookingsFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: %q: %w", path, err)
	}
	return bs, nil
}

// LoadBookingsFromReader decodes a [BookingsFile]. Unknown fields are
// rejected. Time values are not validated; the conflict detector skips
// records it cannot resolve.
func LoadBookingsFromReader(r io.Reader) ([]types.ExistingBooking, error) {
	var file BookingsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	if file.Bookings == nil {
		file.Bookings = []types.ExistingBooking{}
	}
	return file.Bookings, nil
}
