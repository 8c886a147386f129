package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flowweave/flowweave/pkg/errors"
)

// ReadFlows parses a flow fact table from CSV.
//
// The header must contain "source", "target", and "value" columns, plus a
// material column named either "material" or "type". An optional "id"
// column joins rows to a flow dimension table; every other column becomes
// a flow attribute. Header matching is case-insensitive.
func ReadFlows(r io.Reader) ([]FlowRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "read flow header")
	}

	cols := headerIndex(header)
	srcIdx, ok := cols["source"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTable, "flow table has no %q column", "source")
	}
	tgtIdx, ok := cols["target"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTable, "flow table has no %q column", "target")
	}
	valIdx, ok := cols["value"]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTable, "flow table has no %q column", "value")
	}
	matIdx, ok := cols["material"]
	if !ok {
		matIdx, ok = cols["type"]
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidTable, "flow table has no %q or %q column", "material", "type")
	}
	idIdx, hasID := cols["id"]

	reserved := map[int]struct{}{srcIdx: {}, tgtIdx: {}, valIdx: {}, matIdx: {}}
	if hasID {
		reserved[idIdx] = struct{}{}
	}

	var flows []FlowRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "flow table line %d", line)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(rec[valIdx]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidTable,
				"flow table line %d: value %q is not numeric", line, rec[valIdx])
		}

		f := FlowRecord{
			Source:   rec[srcIdx],
			Target:   rec[tgtIdx],
			Material: rec[matIdx],
			Value:    value,
		}
		if hasID {
			f.ID = rec[idIdx]
		}
		for i, name := range header {
			if _, skip := reserved[i]; skip || i >= len(rec) {
				continue
			}
			if f.Attrs == nil {
				f.Attrs = make(map[string]string)
			}
			f.Attrs[strings.ToLower(strings.TrimSpace(name))] = rec[i]
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// ReadDimensionTable parses a dimension table from CSV. The key column is
// the one named "id", or the first column when none is. All remaining
// columns become dimension attributes.
func ReadDimensionTable(r io.Reader) (*DimensionTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "read dimension header")
	}

	keyIdx := 0
	if idx, ok := headerIndex(header)["id"]; ok {
		keyIdx = idx
	}

	var columns []string
	for i, name := range header {
		if i == keyIdx {
			continue
		}
		columns = append(columns, strings.ToLower(strings.TrimSpace(name)))
	}
	table := NewDimensionTable(columns...)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "dimension table line %d", line)
		}

		values := make(map[string]string, len(columns))
		col := 0
		for i := range header {
			if i == keyIdx {
				continue
			}
			if i < len(rec) {
				values[columns[col]] = rec[i]
			}
			col++
		}
		if err := table.AddRow(rec[keyIdx], values); err != nil {
			return nil, fmt.Errorf("dimension table line %d: %w", line, err)
		}
	}
	return table, nil
}

// ReadFlowsFile reads a flow table from a CSV file.
func ReadFlowsFile(path string) ([]FlowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadFlows(f)
}

// ReadDimensionTableFile reads a dimension table from a CSV file.
func ReadDimensionTableFile(path string) (*DimensionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadDimensionTable(f)
}

func headerIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		m[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return m
}
