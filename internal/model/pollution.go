package model

import "time"

// Pollution categories accepted on create and update.
var PollutionTypes = []string{
	"Déchets",
	"Pollution de l'eau",
	"Pollution de l'air",
	"Nuisance sonore",
	"Plastique",
	"Chimique",
	"Dépôt sauvage",
	"Eau",
	"Air",
	"Autre",
}

// Pollution is a citizen report stored in the `pollutions` table.  A nil
// UtilisateurID marks an unowned report.
type Pollution struct {
	ID               int64     `json:"id"`
	Titre            string    `json:"titre"`
	Description      string    `json:"description"`
	TypePollution    string    `json:"type_pollution"`
	Lieu             string    `json:"lieu"`
	DateObservation  time.Time `json:"date_observation"`
	DecouvreurNom    *string   `json:"decouvreur_nom"`
	DecouvreurPrenom *string   `json:"decouvreur_prenom"`
	UtilisateurID    *string   `json:"utilisateur_id"`
	PhotoURL         *string   `json:"photo_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// PollutionPatch lists every column an update may touch.  Fields left nil
// are not written; anything not listed here cannot be changed through the
// API (owner, id, creation time).
type PollutionPatch struct {
	Titre            *string
	Description      *string
	TypePollution    *string
	Lieu             *string
	DateObservation  *time.Time
	DecouvreurNom    *string
	DecouvreurPrenom *string
	PhotoURL         *string
}

// Empty reports whether the patch changes nothing.
func (p PollutionPatch) Empty() bool {
	return p.Titre == nil && p.Description == nil && p.TypePollution == nil && p.Lieu == nil &&
		p.DateObservation == nil && p.DecouvreurNom == nil && p.DecouvreurPrenom == nil && p.PhotoURL == nil
}
