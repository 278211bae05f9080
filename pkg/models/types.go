package models

import (
	"database/sql"
	"time"
)

/*
LOAD → types simples pour charger les tables brutes depuis la base de données.
*/

// Customer représente un client tel qu'il est lu depuis la table customers.
type Customer struct {
	CustomerID  uint64
	Created     time.Time
	DateOfBirth sql.NullTime
}

// InstalmentPlan représente un plan de paiement échelonné rattaché à une
// commande et à un client.
type InstalmentPlan struct {
	InstalmentPlanID uint64
	CustomerID       uint64
	OrderID          uint64
	Created          time.Time
	TotalAmount      float64
	NumInstalments   int
	Country          string // payment_method_country
	MerchantName     sql.NullString
}

// Instalment représente une échéance planifiée au sein d'un plan.
// Order est l'ordinal de séquence dans le plan (la dernière échéance porte
// l'ordinal maximal).
type Instalment struct {
	InstalmentID     uint64
	InstalmentPlanID uint64
	Order            int
	Scheduled        time.Time
	Completed        sql.NullTime
	Status           string
	Amount           float64
	Total            float64
	PenaltyFee       float64
	RefundedAmount   float64
}

// CartItem représente une ligne de panier rattachée à une commande.
type CartItem struct {
	OrderID uint64
	Qty     int64
}

// Refund représente un remboursement rattaché à une commande.
type Refund struct {
	OrderID uint64
	Amount  float64
}

/*
COMPUTE → structure de résultat, une ligne par plan éligible.
*/

// FeatureRow contient la ligne de sortie pour un plan mature. Les colonnes
// comportementales sont nulles (Valid=false) quand l'historique du client est
// vide ou quand la jointure ne trouve pas de correspondance, jamais zéro.
type FeatureRow struct {
	InstalmentPlanID uint64
	CustomerID       uint64
	OrderID          uint64
	Created          time.Time
	MerchantName     sql.NullString

	DaysSinceScheduled int64
	IsReturning        bool
	NrOfItems          sql.NullInt64

	// Cibles : montant encore exposé à chaque horizon de retard.
	UnpaidAtDue sql.NullFloat64
	UnpaidAt5   sql.NullFloat64
	UnpaidAt10  sql.NullFloat64
	UnpaidAt20  sql.NullFloat64
	UnpaidAt30  sql.NullFloat64
	UnpaidAt60  sql.NullFloat64
	UnpaidAt90  sql.NullFloat64

	// Comportement : calculé uniquement sur l'historique strictement antérieur
	// à la création du plan.
	TotalAmount        sql.NullFloat64
	AvgOrderValue      sql.NullFloat64
	AvgFeesPerOrder30  sql.NullFloat64
	AvgFeesPerOrder90  sql.NullFloat64
	AvgFeesPerOrder180 sql.NullFloat64
	AvgFeesPerOrder365 sql.NullFloat64
	CountMerchants     sql.NullInt64
	CurrentExposure    sql.NullFloat64
	SumPaidAmount      sql.NullFloat64

	CustomerFirstJoined sql.NullTime
	DateOfBirth         sql.NullTime
}

/*
CONFIG → paramètres globaux
*/

// Config contient les paramètres de configuration passés à la fonction de
// calcul. Observation est la date d'évaluation ("as of") en UTC.
type Config struct {
	DSN            string `yaml:"dsn"`
	NumInstalments int    `yaml:"num_instalments"`
	Country        string `yaml:"country"`
	Output         string `yaml:"output"`
	Workers        int    `yaml:"workers"`
	Verbose        bool   `yaml:"verbose"`

	Observation time.Time `yaml:"-"`
}
