package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/pollution-watch/internal/model"
)

// MaxListLimit caps every list query.
const MaxListLimit = 1000

const pollutionColumns = "id,titre,description,type_pollution,lieu,date_observation," +
	"decouvreur_nom,decouvreur_prenom,utilisateur_id,photo_url,created_at"

// PollutionRepo encapsulates all queries on the `pollutions` table.
type PollutionRepo struct {
	db *sql.DB
}

func NewPollutionRepo(db *sql.DB) *PollutionRepo {
	return &PollutionRepo{db: db}
}

// Create inserts a report and fills in its generated ID and CreatedAt.
func (r *PollutionRepo) Create(ctx context.Context, p *model.Pollution) error {
	const q = `INSERT INTO pollutions
		(titre, description, type_pollution, lieu, date_observation, decouvreur_nom, decouvreur_prenom, utilisateur_id, photo_url)
		VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		p.Titre, p.Description, p.TypePollution, p.Lieu, p.DateObservation,
		p.DecouvreurNom, p.DecouvreurPrenom, p.UtilisateurID, p.PhotoURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id

	// created_at is assigned by the database.
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM pollutions WHERE id = ?", id).Scan(&p.CreatedAt)
}

// GetByID returns ErrNotFound when no report has the given id.
func (r *PollutionRepo) GetByID(ctx context.Context, id int64) (model.Pollution, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+pollutionColumns+" FROM pollutions WHERE id = ?", id)
	return scanPollution(row)
}

// List returns reports ordered by id.  A non-empty search filters on a
// case-insensitive substring of the title.
func (r *PollutionRepo) List(ctx context.Context, search string, limit int) ([]model.Pollution, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	q := "SELECT " + pollutionColumns + " FROM pollutions"
	args := []any{}
	if search = strings.TrimSpace(search); search != "" {
		q += " WHERE LOWER(titre) LIKE ?"
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}
	q += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPollutions(rows)
}

// Update writes only the non-nil fields of the patch.
func (r *PollutionRepo) Update(ctx context.Context, id int64, patch model.PollutionPatch) error {
	if patch.Empty() {
		return nil
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Titre != nil {
		add("titre", *patch.Titre)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.TypePollution != nil {
		add("type_pollution", *patch.TypePollution)
	}
	if patch.Lieu != nil {
		add("lieu", *patch.Lieu)
	}
	if patch.DateObservation != nil {
		add("date_observation", *patch.DateObservation)
	}
	if patch.DecouvreurNom != nil {
		add("decouvreur_nom", emptyAsNull(*patch.DecouvreurNom))
	}
	if patch.DecouvreurPrenom != nil {
		add("decouvreur_prenom", emptyAsNull(*patch.DecouvreurPrenom))
	}
	if patch.PhotoURL != nil {
		add("photo_url", *patch.PhotoURL)
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, "UPDATE pollutions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	return err
}

// Delete removes a report; favorites referencing it cascade.
func (r *PollutionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pollutions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPollution(s rowScanner) (model.Pollution, error) {
	var (
		p                         model.Pollution
		nom, prenom, owner, photo sql.NullString
	)
	err := s.Scan(&p.ID, &p.Titre, &p.Description, &p.TypePollution, &p.Lieu, &p.DateObservation,
		&nom, &prenom, &owner, &photo, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pollution{}, ErrNotFound
		}
		return model.Pollution{}, err
	}
	p.DecouvreurNom = nullString(nom)
	p.DecouvreurPrenom = nullString(prenom)
	p.UtilisateurID = nullString(owner)
	p.PhotoURL = nullString(photo)
	return p, nil
}

func collectPollutions(rows *sql.Rows) ([]model.Pollution, error) {
	out := []model.Pollution{}
	for rows.Next() {
		p, err := scanPollution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// emptyAsNull clears an optional text column when the client sends "".
func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
