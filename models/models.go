package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies an upstream data feed.
type Source string

const (
	SourceBTC  Source = "btc"
	SourceGold Source = "gold"
)

// Staging and warehouse table names.
const (
	TableBtcStaging    = "transform.btc_data_import"
	TableGoldStaging   = "transform.gold_data_import"
	TableTransformLog  = "transform.transform_log"
	TableImportLog     = "extract.import_log"
	TableAPIImportLog  = "extract.api_import_log"
	TableCurrency      = "warehouse.dim_currency"
	TableDimDate       = "warehouse.dim_date"
	TableFactBtc       = "warehouse.fact_btc"
	TableFactGold      = "warehouse.fact_gold"
	TableExchangeRates = "warehouse.fact_exchange_rates"
)

// RateColumnPrefix prefixes every dynamic exchange-rate column of the gold staging table.
const RateColumnPrefix = "rate_"

// DataType is the landing-store directory name for the source.
func (s Source) DataType() string {
	if s == SourceBTC {
		return "bitcoin"
	}
	return string(s)
}

// StagingTable returns the staging table fed by the source.
func (s Source) StagingTable() string {
	if s == SourceBTC {
		return TableBtcStaging
	}
	return TableGoldStaging
}

// Status is the outcome recorded for a processed raw file.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// RateColumn maps a currency code to its gold staging column, e.g. EUR -> rate_eur.
func RateColumn(code string) string {
	return RateColumnPrefix + strings.ToLower(code)
}

// Currency is reference data shared by every stage.
type Currency struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:3;uniqueIndex;not null" json:"code"`
}

func (Currency) TableName() string { return TableCurrency }

// ImportLog is the provenance record of one landed raw file.
type ImportLog struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	BatchDate            time.Time `json:"batch_date"`
	CurrencyID           *uint     `json:"currency_id"`
	ImportDirectoryName  string    `gorm:"size:255" json:"import_directory_name"`
	ImportFileName       string    `gorm:"size:255;index" json:"import_file_name"`
	FileCreatedDate      time.Time `json:"file_created_date"`
	FileLastModifiedDate time.Time `json:"file_last_modified_date"`
	RowCount             int       `json:"row_count"`
}

func (ImportLog) TableName() string { return TableImportLog }

// APIImportLog records one upstream API call.
type APIImportLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CurrencyID    uint      `json:"currency_id"`
	APIID         string    `gorm:"column:api_id;size:10" json:"api_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	CodeResponse  int       `json:"code_response"`
	ErrorMessages *string   `json:"error_messages"`
}

func (APIImportLog) TableName() string { return TableAPIImportLog }

// TransformLog marks a raw file as handled by the transform stage.
type TransformLog struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	BatchDate              time.Time `json:"batch_date"`
	CurrencyID             *uint     `json:"currency_id"`
	ProcessedDirectoryName string    `gorm:"size:255" json:"processed_directory_name"`
	ProcessedFileName      string    `gorm:"size:255;index" json:"processed_file_name"`
	RowCount               int       `json:"row_count"`
	Status                 Status    `gorm:"size:20" json:"status"`
}

func (TransformLog) TableName() string { return TableTransformLog }

// BtcStaging is one normalized daily BTC row.
type BtcStaging struct {
	CurrencyID uint            `gorm:"primaryKey;autoIncrement:false" json:"currency_id"`
	Date       time.Time       `gorm:"primaryKey;type:date" json:"date"`
	Open       decimal.Decimal `gorm:"type:numeric(24,8)" json:"open"`
	High       decimal.Decimal `gorm:"type:numeric(24,8)" json:"high"`
	Low        decimal.Decimal `gorm:"type:numeric(24,8)" json:"low"`
	Close      decimal.Decimal `gorm:"type:numeric(24,8)" json:"close"`
	Volume     decimal.Decimal `gorm:"type:numeric(24,8)" json:"volume"`
}

func (BtcStaging) TableName() string { return TableBtcStaging }

// GoldStaging is one normalized daily gold row. Rates are stored in the dynamic
// rate_<ccy> columns and are not part of the static schema.
type GoldStaging struct {
	CurrencyID uint                       `gorm:"primaryKey;autoIncrement:false" json:"currency_id"`
	Date       time.Time                  `gorm:"primaryKey;type:date" json:"date"`
	Open       decimal.Decimal            `gorm:"type:numeric(24,8)" json:"open"`
	High       decimal.Decimal            `gorm:"type:numeric(24,8)" json:"high"`
	Low        decimal.Decimal            `gorm:"type:numeric(24,8)" json:"low"`
	Price      decimal.Decimal            `gorm:"type:numeric(24,8)" json:"price"`
	Price24k   decimal.Decimal            `gorm:"column:price_24k;type:numeric(24,8)" json:"price_24k"`
	Price18k   decimal.Decimal            `gorm:"column:price_18k;type:numeric(24,8)" json:"price_18k"`
	Price14k   decimal.Decimal            `gorm:"column:price_14k;type:numeric(24,8)" json:"price_14k"`
	Rates      map[string]decimal.Decimal `gorm:"-" json:"currency_rates"`
}

func (GoldStaging) TableName() string { return TableGoldStaging }

// DimDate is the calendar dimension.
type DimDate struct {
	Date       time.Time `gorm:"primaryKey;type:date" json:"date"`
	Day        int       `json:"day"`
	Month      int       `json:"month"`
	MonthName  string    `gorm:"size:10" json:"month_name"`
	Quarter    int       `json:"quarter"`
	Year       int       `json:"year"`
	DayOfWeek  int       `json:"day_of_week"`
	WeekOfYear int       `json:"week_of_year"`
	IsWeekend  bool      `json:"is_weekend"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DimDate) TableName() string { return TableDimDate }

// FactBtc is the warehouse BTC fact.
type FactBtc struct {
	CurrencyID uint            `gorm:"primaryKey;autoIncrement:false" json:"currency_id"`
	Date       time.Time       `gorm:"primaryKey;type:date" json:"date"`
	Open       decimal.Decimal `gorm:"type:numeric(24,8)" json:"open"`
	High       decimal.Decimal `gorm:"type:numeric(24,8)" json:"high"`
	Low        decimal.Decimal `gorm:"type:numeric(24,8)" json:"low"`
	Close      decimal.Decimal `gorm:"type:numeric(24,8)" json:"close"`
	Volume     decimal.Decimal `gorm:"type:numeric(24,8)" json:"volume"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (FactBtc) TableName() string { return TableFactBtc }

// FactGold is the warehouse gold fact.
type FactGold struct {
	CurrencyID uint            `gorm:"primaryKey;autoIncrement:false" json:"currency_id"`
	Date       time.Time       `gorm:"primaryKey;type:date" json:"date"`
	Open       decimal.Decimal `gorm:"type:numeric(24,8)" json:"open"`
	High       decimal.Decimal `gorm:"type:numeric(24,8)" json:"high"`
	Low        decimal.Decimal `gorm:"type:numeric(24,8)" json:"low"`
	Price      decimal.Decimal `gorm:"type:numeric(24,8)" json:"price"`
	Price24k   decimal.Decimal `gorm:"column:price_24k;type:numeric(24,8)" json:"price_24k"`
	Price18k   decimal.Decimal `gorm:"column:price_18k;type:numeric(24,8)" json:"price_18k"`
	Price14k   decimal.Decimal `gorm:"column:price_14k;type:numeric(24,8)" json:"price_14k"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (FactGold) TableName() string { return TableFactGold }

// FactExchangeRate is the warehouse exchange-rate fact derived from gold rate columns.
type FactExchangeRate struct {
	Date             time.Time       `gorm:"primaryKey;type:date" json:"date"`
	BaseCurrencyID   uint            `gorm:"primaryKey;autoIncrement:false" json:"base_currency_id"`
	TargetCurrencyID uint            `gorm:"primaryKey;autoIncrement:false" json:"target_currency_id"`
	Rate             decimal.Decimal `gorm:"type:numeric(18,6)" json:"rate"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (FactExchangeRate) TableName() string { return TableExchangeRates }

// BtcStats are aggregated fact_btc values returned by the read API
type BtcStats struct {
	Currency  string          `json:"currency"`
	StartDate string          `json:"start_date"`
	Days      int64           `json:"days"`
	MaxClose  decimal.Decimal `json:"max_close"`
	MaxVolume decimal.Decimal `json:"max_volume"`
}

// GoldStats are aggregated fact_gold values returned by the read API
type GoldStats struct {
	Currency    string          `json:"currency"`
	StartDate   string          `json:"start_date"`
	Days        int64           `json:"days"`
	MaxPrice    decimal.Decimal `json:"max_price"`
	MaxPrice24k decimal.Decimal `json:"max_price_24k"`
}

// RatePoint is one day of an exchange-rate series.
type RatePoint struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}
