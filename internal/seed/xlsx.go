package seed

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// roundsPerDay: the forum runs two days with two rounds each.
const roundsPerDay = 2

// Event is one activity row parsed from the workbook, with the per-round
// capacities derived from the day/turn marks.
type Event struct {
	Name           string
	Room           string
	Zone           string
	Floor          string
	MinimumSection int32
	Capacities     []RoundCapacity
}

// RoundCapacity is the subscriber cap for one round of the event.
type RoundCapacity struct {
	Round    int32
	MaxUsers int32
}

// workbook columns, in sheet order.
var expectedHeader = []string{"ZONA", "PIANO", "Aula", "n.Alunni", "Attività", "1°giorno", "2°giorno", "turno?"}

// ParseEventsWorkbook reads the activity workbook. Each row is one
// activity; the day columns carry capacity marks:
//   - "XX" opens both of that day's rounds at the row capacity,
//   - "X" opens only the round named by the turn column,
//   - anything else closes the day (capacity 0 for both rounds).
func ParseEventsWorkbook(r io.Reader) ([]Event, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook must contain a header and at least one activity row")
	}

	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows)-1)
	for i, row := range rows[1:] {
		event, err := parseEventRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if event == nil {
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

func checkHeader(header []string) error {
	if len(header) < len(expectedHeader) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseEventRow(row []string) (*Event, error) {
	get := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	name := get(4)
	if name == "" {
		// Trailing padding rows are common in the workbook.
		return nil, nil
	}

	maxUsers, err := strconv.ParseInt(get(3), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid capacity %q: %w", get(3), err)
	}

	var turn int64
	if t := get(7); t != "" {
		turn, err = strconv.ParseInt(t, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid turn %q: %w", t, err)
		}
	}

	event := &Event{
		Name:  name,
		Zone:  get(0),
		Floor: get(1),
		Room:  get(2),
		// The workbook carries no section column; imported activities are
		// open to every section from the first.
		MinimumSection: 1,
	}

	days := []string{get(5), get(6)}
	for day, mark := range days {
		for slot := 1; slot <= roundsPerDay; slot++ {
			round := int32(day*roundsPerDay + slot)
			capacity := int32(0)
			switch mark {
			case "XX":
				capacity = int32(maxUsers)
			case "X":
				if int64(slot) == turn {
					capacity = int32(maxUsers)
				}
			}
			event.Capacities = append(event.Capacities, RoundCapacity{
				Round:    round,
				MaxUsers: capacity,
			})
		}
	}

	return event, nil
}
