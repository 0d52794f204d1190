package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Driver is a row of the driver list.
type Driver struct {
	Id uint32
}

const idColumn = "id"

// ReadDrivers reads a csv with a header row, only the `id` column is used.
func ReadDrivers(r io.Reader) ([]Driver, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read drivers: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read drivers: %w", err)
	}

	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), idColumn) {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, fmt.Errorf("read drivers: no %q column in header %v", idColumn, header)
	}

	drivers := []Driver{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read drivers: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if column >= len(record) {
			return nil, fmt.Errorf("read drivers: line %d: missing %q field", line, idColumn)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(record[column]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("read drivers: line %d: invalid id %q: %w", line, record[column], err)
		}
		drivers = append(drivers, Driver{Id: uint32(id)})
	}
	return drivers, nil
}

func ReadDriversFile(path string) ([]Driver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDrivers(f)
}

func DriverIds(drivers []Driver) []uint32 {
	ids := make([]uint32, len(drivers))
	for i, d := range drivers {
		ids[i] = d.Id
	}
	return ids
}
