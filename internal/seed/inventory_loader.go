package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// LoadInventory ingests a name,quantity,price CSV into the inventory table.
// Rows whose name already exists are skipped, so the loader can run on every
// start. It returns the number of rows inserted.
func LoadInventory(db *sqlx.DB, csvPath string) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open inventory catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return LoadInventoryFrom(db, file)
}

// LoadInventoryFrom is LoadInventory over an arbitrary reader.
func LoadInventoryFrom(db *sqlx.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read inventory header: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("start inventory transaction: %w", err)
	}
	defer tx.Rollback()

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logrus.WithError(err).Warn("unable to read inventory row")
			continue
		}
		if len(record) < 3 {
			continue
		}
		name := strings.TrimSpace(record[0])
		qty, qErr := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		price, pErr := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if name == "" || qErr != nil || pErr != nil || qty < 0 || price < 0 {
			logrus.WithField("row", record).Warn("skipping invalid inventory row")
			continue
		}

		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM inventory WHERE name = $1)`, name); err != nil {
			return 0, fmt.Errorf("check inventory %s: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO inventory (id, name, quantity, price) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), name, qty, price); err != nil {
			return 0, fmt.Errorf("insert inventory %s: %w", name, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit inventory seed: %w", err)
	}
	return rows, nil
}
