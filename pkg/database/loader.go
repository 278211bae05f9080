package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"credit-dataset/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// RequiredColumns liste, par table, les colonnes dont le calcul dépend.
// Tout le reste des tables sources est opaque et ignoré.
var RequiredColumns = map[string][]string{
	"instalment_plans": {
		"instalment_plan_id", "customer_id", "order_id", "created",
		"total_amount", "num_instalments", "payment_method_country", "merchant_name",
	},
	"instalments": {
		"instalment_id", "instalment_plan_id", "order", "scheduled", "completed",
		"status", "amount", "total", "penalty_fee", "refunded_amount",
	},
	"customers": {"customer_id", "created", "date_of_birth"},
	"cart":      {"order_id", "qty"},
	"refunds":   {"order_id", "amount"},
}

// CheckColumns vérifie qu'une table expose toutes les colonnes requises,
// avant tout chargement. Une colonne manquante est une erreur de schéma,
// fatale : on n'entame pas le calcul sur une source incomplète.
func CheckColumns(ctx context.Context, db *sql.DB, table string, required []string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("table invalide: %q", table)
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM `%s` LIMIT 0", table))
	if err != nil {
		return fmt.Errorf("probe %s: %w", table, err)
	}
	defer rows.Close()

	have, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns %s: %w", table, err)
	}
	if missing := missingColumns(have, required); len(missing) > 0 {
		return fmt.Errorf("table %s: colonnes manquantes %v", table, missing)
	}
	return rows.Err()
}

func missingColumns(have, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, c := range have {
		set[c] = struct{}{}
	}
	var missing []string
	for _, c := range want {
		if _, ok := set[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// parseAmount convertit un montant stocké en texte (DECIMAL) en float64.
// Null ou vide vaut 0, comme la conversion numérique du pipeline d'origine.
func parseAmount(s sql.NullString) (float64, error) {
	if !s.Valid || s.String == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s.String, 64)
	if err != nil {
		return 0, fmt.Errorf("montant invalide %q: %w", s.String, err)
	}
	return v, nil
}

// LoadInstalmentPlans charge tous les plans, toutes configurations confondues.
// Le filtre produit/marché est appliqué en mémoire par le calcul.
func LoadInstalmentPlans(ctx context.Context, db *sql.DB) ([]models.InstalmentPlan, error) {
	const q = `SELECT instalment_plan_id, customer_id, order_id, created,
		total_amount, num_instalments, payment_method_country, merchant_name
		FROM instalment_plans`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load instalment_plans: %w", err)
	}
	defer rows.Close()

	var out []models.InstalmentPlan
	for rows.Next() {
		var (
			p      models.InstalmentPlan
			amount sql.NullString
		)
		if err := rows.Scan(&p.InstalmentPlanID, &p.CustomerID, &p.OrderID, &p.Created,
			&amount, &p.NumInstalments, &p.Country, &p.MerchantName); err != nil {
			return nil, fmt.Errorf("scan instalment_plans: %w", err)
		}
		if p.TotalAmount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("instalment_plans %d: %w", p.InstalmentPlanID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadInstalments charge toutes les échéances.
func LoadInstalments(ctx context.Context, db *sql.DB) ([]models.Instalment, error) {
	const q = "SELECT instalment_id, instalment_plan_id, `order`, scheduled, completed, " +
		"status, amount, total, penalty_fee, refunded_amount FROM instalments"
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load instalments: %w", err)
	}
	defer rows.Close()

	var out []models.Instalment
	for rows.Next() {
		var (
			in                            models.Instalment
			amount, total, penalty, refun sql.NullString
		)
		if err := rows.Scan(&in.InstalmentID, &in.InstalmentPlanID, &in.Order,
			&in.Scheduled, &in.Completed, &in.Status, &amount, &total, &penalty, &refun); err != nil {
			return nil, fmt.Errorf("scan instalments: %w", err)
		}
		if in.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("instalments %d: %w", in.InstalmentID, err)
		}
		if in.Total, err = parseAmount(total); err != nil {
			return nil, fmt.Errorf("instalments %d: %w", in.InstalmentID, err)
		}
		if in.PenaltyFee, err = parseAmount(penalty); err != nil {
			return nil, fmt.Errorf("instalments %d: %w", in.InstalmentID, err)
		}
		if in.RefundedAmount, err = parseAmount(refun); err != nil {
			return nil, fmt.Errorf("instalments %d: %w", in.InstalmentID, err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// LoadCustomers charge les attributs statiques des clients.
func LoadCustomers(ctx context.Context, db *sql.DB) ([]models.Customer, error) {
	const q = "SELECT customer_id, created, date_of_birth FROM customers"
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.CustomerID, &c.Created, &c.DateOfBirth); err != nil {
			return nil, fmt.Errorf("scan customers: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadCart charge les lignes de panier. Une quantité nulle vaut 0.
func LoadCart(ctx context.Context, db *sql.DB) ([]models.CartItem, error) {
	const q = "SELECT order_id, qty FROM cart"
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	defer rows.Close()

	var out []models.CartItem
	for rows.Next() {
		var (
			it  models.CartItem
			qty sql.NullInt64
		)
		if err := rows.Scan(&it.OrderID, &qty); err != nil {
			return nil, fmt.Errorf("scan cart: %w", err)
		}
		if qty.Valid {
			it.Qty = qty.Int64
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// LoadRefunds charge les remboursements. La table fait partie de la surface
// d'entrée et son schéma est contrôlé, même si le chemin actif ne la joint pas.
func LoadRefunds(ctx context.Context, db *sql.DB) ([]models.Refund, error) {
	const q = "SELECT order_id, amount FROM refunds"
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load refunds: %w", err)
	}
	defer rows.Close()

	var out []models.Refund
	for rows.Next() {
		var (
			r      models.Refund
			amount sql.NullString
		)
		if err := rows.Scan(&r.OrderID, &amount); err != nil {
			return nil, fmt.Errorf("scan refunds: %w", err)
		}
		if r.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("refunds order %d: %w", r.OrderID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
