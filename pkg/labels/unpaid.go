// Package labels construit les cibles d'impayé par horizon de retard
// (due, 5, 10, 20, 30, 60, 90 jours) pour un plan mature.
package labels

import "database/sql"

// Horizons liste les seuils de retard en jours, dans l'ordre des colonnes de
// sortie. "due" correspond au seuil 0.
var Horizons = [7]int64{0, 5, 10, 20, 30, 60, 90}

// Buckets porte les sept cibles unpaid_at_*. Une valeur invalide signifie
// "censuré" (horizon pas encore atteint) ou "statut hors périmètre", jamais
// une perte nulle : l'aval ne doit pas imputer zéro.
type Buckets struct {
	AtDue sql.NullFloat64
	At5   sql.NullFloat64
	At10  sql.NullFloat64
	At20  sql.NullFloat64
	At30  sql.NullFloat64
	At60  sql.NullFloat64
	At90  sql.NullFloat64
}

// Values retourne les sept cibles dans l'ordre de Horizons.
func (b Buckets) Values() [7]sql.NullFloat64 {
	return [7]sql.NullFloat64{b.AtDue, b.At5, b.At10, b.At20, b.At30, b.At60, b.At90}
}

// Bucketize assigne les cibles d'une ligne, indépendamment des autres lignes.
//
// Branche "paid" : d = jours entre échéance et règlement (daysPaid). Un
// horizon déjà dépassé au moment du règlement reçoit le montant réglé (le
// montant était encore exposé à cet horizon), un horizon atteint avant le
// règlement reçoit 0. Les sept colonnes sont toujours renseignées. Un plan
// réglé sans date de règlement est une anomalie : tout reste nul.
//
// Branche "unpaid" : u = jours écoulés depuis l'échéance à la date
// d'évaluation (daysUnpaid). Un horizon déjà atteint reçoit le montant
// impayé, un horizon futur reste nul (donnée censurée). u < 0 laisse tout nul.
//
// Tout autre statut laisse les sept colonnes nulles sans erreur.
func Bucketize(status string, daysPaid sql.NullInt64, daysUnpaid int64, amountPaid, amountUnpaid float64) Buckets {
	var vals [7]sql.NullFloat64

	switch status {
	case "paid":
		if !daysPaid.Valid {
			return Buckets{}
		}
		for i, h := range Horizons {
			v := 0.0
			if daysPaid.Int64 > h {
				v = amountPaid
			}
			vals[i] = sql.NullFloat64{Float64: v, Valid: true}
		}
	case "unpaid":
		if daysUnpaid < 0 {
			return Buckets{}
		}
		for i, h := range Horizons {
			if daysUnpaid >= h {
				vals[i] = sql.NullFloat64{Float64: amountUnpaid, Valid: true}
			}
		}
	default:
		return Buckets{}
	}

	return Buckets{
		AtDue: vals[0],
		At5:   vals[1],
		At10:  vals[2],
		At20:  vals[3],
		At30:  vals[4],
		At60:  vals[5],
		At90:  vals[6],
	}
}
