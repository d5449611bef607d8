package sheets

import (
	"fmt"
	"strconv"
	"time"

	"tournament-bot/internal/models"
)

// Sheet names, one per tournament format. Header row expected at row 1:
// id | user_id | username | team_name | rating | confirmed_at | confirmed_by
const (
	SheetVSA = "VSA"
	SheetH2H = "H2H"
)

func sheetFor(t models.Tournament) string {
	if t == models.TournamentH2H {
		return SheetH2H
	}
	return SheetVSA
}

// MirrorConfirmed writes a confirmed registration to the spreadsheet. An
// existing row for the same user is overwritten in place (admin overwrite),
// otherwise a row is appended. Best effort: callers log failures and move
// on; the ledger is the source of truth.
func (c *Client) MirrorConfirmed(rec models.ConfirmedRegistration) error {
	sheet := sheetFor(rec.Tournament)
	row := []interface{}{
		rec.ID,
		rec.UserID,
		rec.Username,
		rec.TeamName,
		rec.Rating,
		rec.ConfirmedAt.Format(time.RFC3339),
		rec.ConfirmedBy,
	}

	values, err := c.readAll(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", sheet, err)
	}
	uid := strconv.FormatInt(rec.UserID, 10)
	for i := 1; i < len(values); i++ {
		if get(values[i], 1) == uid {
			// sheet rows are 1-indexed, values are 0-indexed
			if err := c.updateRow(sheet, i+1, row); err != nil {
				return fmt.Errorf("update %s row %d: %w", sheet, i+1, err)
			}
			return nil
		}
	}
	if err := c.appendRow(sheet, row); err != nil {
		return fmt.Errorf("append %s: %w", sheet, err)
	}
	return nil
}

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}
