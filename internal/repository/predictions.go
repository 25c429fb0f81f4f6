package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// ==================== Prediction Methods ====================

// GetOrCreatePrediction returns the prediction row of a member for a race,
// or for the season's championship when raceID is nil.
func (r *Repository) GetOrCreatePrediction(ctx context.Context, memberID int, raceID *int, season int) (int64, error) {
	var id int64
	var err error
	if raceID == nil {
		err = r.db.QueryRowContext(ctx, `
			SELECT id FROM predictions WHERE member_id = ? AND race_id IS NULL AND season = ?
		`, memberID, season).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, `
			SELECT id FROM predictions WHERE member_id = ? AND race_id = ?
		`, memberID, *raceID).Scan(&id)
	}
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO predictions (member_id, race_id, season) VALUES (?, ?, ?)
	`, memberID, nullInt(raceID), season)
	if err != nil {
		return 0, translate(err)
	}
	return result.LastInsertId()
}

// UpsertPredictionEntry saves the value of one field. An existing overwrite is kept.
func (r *Repository) UpsertPredictionEntry(ctx context.Context, predictionID int64, field models.PredictionField, driverID, constructorID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prediction_entries (prediction_id, field, driver_id, constructor_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(prediction_id, field) DO UPDATE SET
			driver_id = excluded.driver_id,
			constructor_id = excluded.constructor_id,
			updated_at = excluded.updated_at
	`, predictionID, string(field), nullString(driverID), nullString(constructorID), time.Now().UTC())
	return err
}

const entryColumns = `pe.id, p.member_id, p.race_id, p.season, pe.field, pe.driver_id, pe.constructor_id, pe.overwrite_to, pe.updated_at`

func scanEntry(scan func(dest ...any) error) (*models.PredictionEntry, error) {
	var e models.PredictionEntry
	var raceID sql.NullInt64
	var field string
	var driverID, constructorID, overwrite sql.NullString
	var updatedAt sql.NullTime
	if err := scan(&e.ID, &e.MemberID, &raceID, &e.Season, &field, &driverID, &constructorID, &overwrite, &updatedAt); err != nil {
		return nil, err
	}
	if raceID.Valid {
		id := int(raceID.Int64)
		e.RaceID = &id
	}
	e.Field = models.PredictionField(field)
	e.DriverID = driverID.String
	e.ConstructorID = constructorID.String
	e.Overwrite = models.Overwrite(overwrite.String)
	e.UpdatedAt = updatedAt.Time
	return &e, nil
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...any) ([]models.PredictionEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PredictionEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListMemberEntries returns a member's entries for one race, or for the
// championship of season when raceID is nil.
func (r *Repository) ListMemberEntries(ctx context.Context, memberID int, raceID *int, season int) ([]models.PredictionEntry, error) {
	if raceID == nil {
		return r.queryEntries(ctx, `
			SELECT `+entryColumns+`
			FROM prediction_entries pe
			JOIN predictions p ON p.id = pe.prediction_id
			WHERE p.member_id = ? AND p.race_id IS NULL AND p.season = ?
			ORDER BY pe.id
		`, memberID, season)
	}
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM prediction_entries pe
		JOIN predictions p ON p.id = pe.prediction_id
		WHERE p.member_id = ? AND p.race_id = ?
		ORDER BY pe.id
	`, memberID, *raceID)
}

// ListGroupEntries returns every entry of every member of a group for a season
func (r *Repository) ListGroupEntries(ctx context.Context, groupID, season int) ([]models.PredictionEntry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM prediction_entries pe
		JOIN predictions p ON p.id = pe.prediction_id
		JOIN members m ON m.id = p.member_id
		WHERE m.group_id = ? AND p.season = ?
		ORDER BY pe.id
	`, groupID, season)
}

// GetPredictionEntry returns a single entry by id
func (r *Repository) GetPredictionEntry(ctx context.Context, id int) (*models.PredictionEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM prediction_entries pe
		JOIN predictions p ON p.id = pe.prediction_id
		WHERE pe.id = ?
	`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

// SetEntryOverwrite sets or clears (OverwriteNone) the admin overwrite of an entry
func (r *Repository) SetEntryOverwrite(ctx context.Context, id int, overwrite models.Overwrite) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE prediction_entries SET overwrite_to = ? WHERE id = ?
	`, nullString(string(overwrite)), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
