package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// ==================== Race Methods ====================

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// UpsertRace creates or updates a race keyed on season and round.
// Returns the race id and whether it was created.
func (r *Repository) UpsertRace(ctx context.Context, race models.Race) (int64, bool, error) {
	existing, err := r.GetRaceByRound(ctx, race.Season, race.Round)
	if err != nil && err != ErrNotFound {
		return 0, false, err
	}

	quali := nullTime(&race.QualifyingDate)
	gp := nullTime(&race.GrandPrixDate)
	sprintQuali := nullTime(race.SprintQualifyingDate)
	sprint := nullTime(race.SprintDate)

	if existing != nil {
		_, err := r.db.ExecContext(ctx, `
			UPDATE races SET name = ?, circuit = ?, locality = ?, country = ?,
				qualifying_date = ?, grand_prix_date = ?, sprint_qualifying_date = ?, sprint_date = ?,
				synced_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, race.Name, nullString(race.Circuit), nullString(race.Locality), nullString(race.Country),
			quali, gp, sprintQuali, sprint, existing.ID)
		return int64(existing.ID), false, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO races (season, round, name, circuit, locality, country,
			qualifying_date, grand_prix_date, sprint_qualifying_date, sprint_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, race.Season, race.Round, race.Name, nullString(race.Circuit), nullString(race.Locality), nullString(race.Country),
		quali, gp, sprintQuali, sprint)
	if err != nil {
		return 0, false, translate(err)
	}
	id, err := result.LastInsertId()
	return id, true, err
}

const raceColumns = `id, season, round, name, circuit, locality, country,
	qualifying_date, grand_prix_date, sprint_qualifying_date, sprint_date`

func scanRace(scan func(dest ...any) error) (*models.Race, error) {
	var race models.Race
	var circuit, locality, country sql.NullString
	var quali, gp, sprintQuali, sprint sql.NullTime
	if err := scan(&race.ID, &race.Season, &race.Round, &race.Name, &circuit, &locality, &country,
		&quali, &gp, &sprintQuali, &sprint); err != nil {
		return nil, err
	}
	race.Circuit = circuit.String
	race.Locality = locality.String
	race.Country = country.String
	race.QualifyingDate = quali.Time
	race.GrandPrixDate = gp.Time
	race.SprintQualifyingDate = timePtr(sprintQuali)
	race.SprintDate = timePtr(sprint)
	return &race, nil
}

// GetRace returns a race by id
func (r *Repository) GetRace(ctx context.Context, id int) (*models.Race, error) {
	race, err := scanRace(r.db.QueryRowContext(ctx, `SELECT `+raceColumns+` FROM races WHERE id = ?`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return race, err
}

// GetRaceByRound returns a race by season and round
func (r *Repository) GetRaceByRound(ctx context.Context, season, round int) (*models.Race, error) {
	race, err := scanRace(r.db.QueryRowContext(ctx,
		`SELECT `+raceColumns+` FROM races WHERE season = ? AND round = ?`, season, round).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return race, err
}

// ListRaces returns the calendar of a season in round order
func (r *Repository) ListRaces(ctx context.Context, season int) ([]models.Race, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+raceColumns+` FROM races WHERE season = ? ORDER BY round`, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		race, err := scanRace(rows.Scan)
		if err != nil {
			return nil, err
		}
		races = append(races, *race)
	}
	return races, rows.Err()
}

// ==================== Driver / Constructor Methods ====================

// UpsertDriver creates or updates a driver
func (r *Repository) UpsertDriver(ctx context.Context, driver models.Driver) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drivers (id, code, given_name, family_name, number)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			given_name = excluded.given_name,
			family_name = excluded.family_name,
			number = excluded.number
	`, driver.ID, nullString(driver.Code), driver.GivenName, driver.FamilyName, driver.Number)
	return err
}

// ListDrivers returns all drivers ordered by family name
func (r *Repository) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, given_name, family_name, number FROM drivers ORDER BY family_name, given_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		var d models.Driver
		var code sql.NullString
		var number sql.NullInt64
		if err := rows.Scan(&d.ID, &code, &d.GivenName, &d.FamilyName, &number); err != nil {
			return nil, err
		}
		d.Code = code.String
		d.Number = int(number.Int64)
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// DriverExists checks if a driver id is known
func (r *Repository) DriverExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// UpsertConstructor creates or updates a constructor
func (r *Repository) UpsertConstructor(ctx context.Context, constructor models.Constructor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO constructors (id, name, nationality)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			nationality = excluded.nationality
	`, constructor.ID, constructor.Name, nullString(constructor.Nationality))
	return err
}

// ListConstructors returns all constructors ordered by name
func (r *Repository) ListConstructors(ctx context.Context) ([]models.Constructor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, nationality FROM constructors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constructors []models.Constructor
	for rows.Next() {
		var c models.Constructor
		var nationality sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &nationality); err != nil {
			return nil, err
		}
		c.Nationality = nationality.String
		constructors = append(constructors, c)
	}
	return constructors, rows.Err()
}

// ConstructorExists checks if a constructor id is known
func (r *Repository) ConstructorExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM constructors WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}
