package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// UserRecord is one participant row from the roster CSV.
type UserRecord struct {
	Name    string
	Email   string
	Section int32
}

// ParseUsersCSV reads the participant roster. The file carries a header
// with name, email and section columns, in any order.
func ParseUsersCSV(r io.Reader) ([]UserRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	nameIdx, emailIdx, sectionIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameIdx = i
		case "email":
			emailIdx = i
		case "section":
			sectionIdx = i
		}
	}
	if nameIdx < 0 || emailIdx < 0 || sectionIdx < 0 {
		return nil, fmt.Errorf("CSV header must contain name, email and section columns")
	}

	var users []UserRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		email := strings.TrimSpace(row[emailIdx])
		if email == "" {
			continue
		}

		section, err := strconv.ParseInt(strings.TrimSpace(row[sectionIdx]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid section %q: %w", line, row[sectionIdx], err)
		}

		users = append(users, UserRecord{
			Name:    strings.TrimSpace(row[nameIdx]),
			Email:   email,
			Section: int32(section),
		})
	}

	return users, nil
}
