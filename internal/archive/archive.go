package archive

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"main/internal/model"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Option defines connection options for the execution report archive.
type Option struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	DSN      string
	Config   *gorm.Config
}

// Record is one archived execution report row.
type Record struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	ClOrdID      int64           `gorm:"column:cl_ord_id;index"`
	Symbol       string          `gorm:"column:symbol;index"`
	Side         string          `gorm:"column:side"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric"`
	OrdType      string          `gorm:"column:ord_type"`
	OrdStatus    string          `gorm:"column:ord_status"`
	OrderQty     decimal.Decimal `gorm:"column:order_qty;type:numeric"`
	MinQty       decimal.Decimal `gorm:"column:min_qty;type:numeric"`
	CumQty       decimal.Decimal `gorm:"column:cum_qty;type:numeric"`
	LeavesQty    decimal.Decimal `gorm:"column:leaves_qty;type:numeric"`
	TransactTime time.Time       `gorm:"column:transact_time;index"`
}

// TableName sets the archive table.
func (Record) TableName() string {
	return "execution_reports"
}

// Archive persists execution reports to a relational store.
type Archive struct {
	db *gorm.DB
}

// Open connects to the archive database and migrates the report table.
func Open(option Option) (*Archive, error) {
	connString, err := option.dsn()
	if err != nil {
		return nil, err
	}

	config := option.Config
	if config == nil {
		config = &gorm.Config{}
	}

	db, err := gorm.Open(postgres.Open(connString), config)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

// Append stores one execution report.
func (a *Archive) Append(rep model.ExecutionReport) error {
	if a == nil || a.db == nil {
		return nil
	}
	row := Record{
		ClOrdID:      rep.ClOrdID,
		Symbol:       rep.Symbol,
		Side:         rep.Side.FIXCode(),
		OrdType:      rep.Kind.FIXCode(),
		OrdStatus:    rep.Status.FIXCode(),
		OrderQty:     rep.OrderQty,
		MinQty:       rep.MinQty,
		CumQty:       rep.CumQty,
		LeavesQty:    rep.LeavesQty,
		TransactTime: rep.TransactTime.UTC(),
	}
	if rep.Price != nil {
		row.Price = *rep.Price
	}
	return a.db.Create(&row).Error
}

// Close closes the underlying connection pool.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() (string, error) {
	if opt.DSN != "" {
		return opt.DSN, nil
	}

	host := opt.Host
	if host == "" {
		host = defaultHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
