package rosters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"regpulse/pkg/contracts/domain"
)

var validate = validator.New()

// ParseMembers converts raw sheet rows into GroupMember entries,
// preserving row order. Rows without a name are skipped and counted;
// roster inputs are read-only so there is nothing to repair.
//
// Expected columns: full name, mobile, alternate mobile, email, age, group.
func ParseMembers(rows [][]interface{}) ([]domain.GroupMember, int) {
	members := make([]domain.GroupMember, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		member := domain.GroupMember{
			FullName:              cellString(row, 0),
			MobileNumber:          cellString(row, 1),
			AlternateMobileNumber: cellString(row, 2),
			Email:                 cellString(row, 3),
			Age:                   cellInt(row, 4),
			Group:                 cellString(row, 5),
		}
		if err := validate.Struct(member); err != nil {
			skipped++
			continue
		}
		members = append(members, member)
	}
	return members, skipped
}

// ParseHistorical converts raw sheet rows into HistoricalParticipant
// entries.
//
// Expected columns: full name, phone, attendance years (comma-separated), age.
func ParseHistorical(rows [][]interface{}) ([]domain.HistoricalParticipant, int) {
	participants := make([]domain.HistoricalParticipant, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		p := domain.HistoricalParticipant{
			FullName: cellString(row, 0),
			Phone:    cellString(row, 1),
			Years:    parseYears(cellString(row, 2)),
			Age:      cellInt(row, 3),
		}
		if p.FullName == "" && p.Phone == "" {
			skipped++
			continue
		}
		participants = append(participants, p)
	}
	return participants, skipped
}

// parseYears reads a comma-separated list of attendance years, dropping
// anything unparsable.
func parseYears(raw string) []int {
	if raw == "" {
		return nil
	}
	var years []int
	for _, part := range strings.Split(raw, ",") {
		if y, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			years = append(years, y)
		}
	}
	return years
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[idx]))
}

func cellInt(row []interface{}, idx int) int {
	s := cellString(row, idx)
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
