package domain

import (
	"encoding/binary"
	"fmt"
	"time"
)

// DeriveIV computes the AES IV for an envelope from its header timestamp, so
// the IV never has to be stored next to the ciphertext.
//
// For a timestamp with calendar fields Y-M-D h:m:s:
//
//  1. the year becomes Y*2 + (M*D - D);
//  2. an instant is built from that year, M, D and h, with s in the minute
//     position and m in the second position;
//  3. D*s seconds are subtracted from that instant;
//  4. IV[0:8] holds its ticks and IV[8:16] the original ticks, both little-endian.
//
// The minute/second swap is part of the format and must be reproduced as is.
// Instants that cannot be represented fail with ErrIVDerivationOverflow.
func DeriveIV(ticks int64) ([IVSize]byte, error) {
	var iv [IVSize]byte

	if !ValidTicks(ticks) {
		return iv, fmt.Errorf("%w: timestamp %d outside of supported range", ErrIVDerivationOverflow, ticks)
	}

	t := TimeFromTicks(ticks)
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	ivYear := year*2 + (int(month)*day - day)
	if ivYear < minYear || ivYear > maxYear {
		return iv, fmt.Errorf("%w: derived year %d", ErrIVDerivationOverflow, ivYear)
	}

	// time.Date normalizes Feb 29 of a common year into March; reject it instead.
	if day > daysIn(month, ivYear) {
		return iv, fmt.Errorf("%w: derived date %d-%02d-%02d", ErrIVDerivationOverflow, ivYear, month, day)
	}

	ivTime := time.Date(ivYear, month, day, hour, second, minute, 0, time.UTC)
	ivTime = ivTime.Add(-time.Duration(day*second) * time.Second)

	ivTicks := TicksFromTime(ivTime)
	if ivTime.Year() < minYear || !ValidTicks(ivTicks) {
		return iv, fmt.Errorf("%w: derived instant %s", ErrIVDerivationOverflow, ivTime)
	}

	binary.LittleEndian.PutUint64(iv[0:8], uint64(ivTicks))
	binary.LittleEndian.PutUint64(iv[8:16], uint64(ticks))

	return iv, nil
}

// daysIn returns the number of days of month in year.
func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
