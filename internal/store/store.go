package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zgoda02/LasCartasZamow/internal/model"
	"github.com/zgoda02/LasCartasZamow/internal/store/config"
)

type Store interface {
	CatalogGet(ctx context.Context, id string) (model.Item, error)
	CatalogList(ctx context.Context) ([]model.Item, error)
	CatalogAdd(ctx context.Context, item model.Item) error
	CatalogUpdate(ctx context.Context, id string, patch model.ItemPatch) error
	CatalogDelete(ctx context.Context, id string) error
	OrderCommit(ctx context.Context, order model.Order) error
	OrderList(ctx context.Context) ([]model.Order, error)
	OrderDelete(ctx context.Context, id string) error
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
)

type store struct {
	database *sql.DB
}

func NewStore(cfg config.Config) (Store, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}

	// Каталог позиций. Две цены на позицию: на месте / с собой
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS items (" +
			" id VARCHAR (64) PRIMARY KEY," +
			" name TEXT NOT NULL," +
			" unit TEXT NOT NULL DEFAULT ''," +
			" category TEXT NOT NULL," +
			" price_h INTEGER NOT NULL," +
			" price_s INTEGER NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	// Заголовки заказов. Заказ после записи не меняется
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS orders (" +
			" id VARCHAR (64) PRIMARY KEY," +
			" receipt VARCHAR (20) NOT NULL," +
			" at TIMESTAMPTZ NOT NULL," +
			" tier VARCHAR (1) NOT NULL," +
			" total INTEGER NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	// Строки заказов. Живут только вместе со своим заказом,
	// имя и цена позиции здесь - снимок на момент продажи
	_, err = db.Exec(
		"CREATE TABLE IF NOT EXISTS order_items (" +
			" order_id VARCHAR (64) NOT NULL REFERENCES orders (id) ON DELETE CASCADE," +
			" item_id VARCHAR (64) NOT NULL," +
			" name TEXT NOT NULL," +
			" qty INTEGER NOT NULL," +
			" price INTEGER NOT NULL," +
			" subtotal INTEGER NOT NULL" +
			" );")
	if err != nil {
		return nil, err
	}

	return &store{
		database: db,
	}, nil
}

func (store *store) CatalogGet(ctx context.Context, id string) (model.Item, error) {
	row := store.database.QueryRowContext(ctx,
		"SELECT id, name, unit, category, price_h, price_s"+
			" FROM items"+
			" WHERE id = $1",
		id)

	var item model.Item
	err := row.Scan(&item.ID,
		&item.Name,
		&item.Unit,
		&item.Category,
		&item.PriceHere,
		&item.PriceAway)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNoRows
		}
		return model.Item{}, err
	}

	return item, nil
}

func (store *store) CatalogList(ctx context.Context) ([]model.Item, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, name, unit, category, price_h, price_s"+
			" FROM items"+
			" ORDER BY category, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		err := rows.Scan(&item.ID,
			&item.Name,
			&item.Unit,
			&item.Category,
			&item.PriceHere,
			&item.PriceAway)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (store *store) CatalogAdd(ctx context.Context, item model.Item) error {
	_, err := store.database.ExecContext(ctx,
		"INSERT INTO items (id, name, unit, category, price_h, price_s)"+
			" VALUES ($1, $2, $3, $4, $5, $6)",
		item.ID,
		item.Name,
		item.Unit,
		item.Category,
		item.PriceHere,
		item.PriceAway)
	if err != nil {
		// Проверка: уже существует
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return ErrAlreadyExists
			}
		}
		return err
	}
	return nil
}

func (store *store) CatalogUpdate(ctx context.Context, id string, patch model.ItemPatch) error {
	// nil-поле сохраняет прежнее значение
	result, err := store.database.ExecContext(ctx,
		"UPDATE items"+
			" SET name = COALESCE($1, name),"+
			" unit = COALESCE($2, unit),"+
			" category = COALESCE($3, category),"+
			" price_h = COALESCE($4, price_h),"+
			" price_s = COALESCE($5, price_s)"+
			" WHERE id = $6",
		patch.Name,
		patch.Unit,
		patch.Category,
		patch.PriceHere,
		patch.PriceAway,
		id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoRows
	}
	return nil
}

func (store *store) CatalogDelete(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx,
		"DELETE FROM items WHERE id = $1",
		id)
	return err
}

// OrderCommit записывает заголовок заказа и все его строки одной транзакцией.
// Либо заказ становится виден целиком, либо не записывается вовсе
func (store *store) OrderCommit(ctx context.Context, order model.Order) error {
	tx, err := store.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (id, receipt, at, tier, total)"+
			" VALUES ($1, $2, $3, $4, $5)",
		order.ID,
		order.Receipt,
		order.At,
		order.Tier,
		order.Total)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, item_id, name, qty, price, subtotal)"+
				" VALUES ($1, $2, $3, $4, $5, $6)",
			order.ID,
			line.ItemID,
			line.Name,
			line.Qty,
			line.Price,
			line.Subtotal)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (store *store) OrderList(ctx context.Context) ([]model.Order, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT id, receipt, at, tier, total"+
			" FROM orders"+
			" ORDER BY at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(&order.ID,
			&order.Receipt,
			&order.At,
			&order.Tier,
			&order.Total)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		lines, err := store.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (store *store) orderLines(ctx context.Context, orderID string) ([]model.OrderLine, error) {
	rows, err := store.database.QueryContext(ctx,
		"SELECT item_id, name, qty, price, subtotal"+
			" FROM order_items"+
			" WHERE order_id = $1",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(&line.ItemID,
			&line.Name,
			&line.Qty,
			&line.Price,
			&line.Subtotal)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Строки удаляются каскадом по внешнему ключу
func (store *store) OrderDelete(ctx context.Context, id string) error {
	_, err := store.database.ExecContext(ctx,
		"DELETE FROM orders WHERE id = $1",
		id)
	return err
}
