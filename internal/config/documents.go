package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DocumentDefaults seeds new invoice and estimate drafts.
type DocumentDefaults struct {
	InvoicePrefix       string          `mapstructure:"invoicePrefix"`
	EstimatePrefix      string          `mapstructure:"estimatePrefix"`
	InvoiceDaysToPay    int             `mapstructure:"invoiceDaysToPay"`
	EstimateDaysValid   int             `mapstructure:"estimateDaysValid"`
	DepositPercent      decimal.Decimal `mapstructure:"-"`
	DepositPercentValue float64         `mapstructure:"depositPercent"`
}

func DefaultDocumentDefaults() DocumentDefaults {
	return DocumentDefaults{
		InvoicePrefix:       "INV",
		EstimatePrefix:      "EST",
		InvoiceDaysToPay:    30,
		EstimateDaysValid:   30,
		DepositPercent:      decimal.NewFromInt(50),
		DepositPercentValue: 50,
	}
}

type DocumentDefaultsHolder struct {
	current atomic.Value // holds DocumentDefaults
}

// NewStaticDocumentDefaultsHolder returns a holder that never reloads.
func NewStaticDocumentDefaultsHolder(defaults DocumentDefaults) *DocumentDefaultsHolder {
	holder := &DocumentDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func NewDocumentDefaultsHolder(log *zap.Logger) (*DocumentDefaultsHolder, error) {
	log = log.Named("config.documents")
	v := viper.New()

	v.SetConfigName("documents")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/claimdocs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLAIMDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDocumentDefaults()
	v.SetDefault("documents.invoicePrefix", defaults.InvoicePrefix)
	v.SetDefault("documents.estimatePrefix", defaults.EstimatePrefix)
	v.SetDefault("documents.invoiceDaysToPay", defaults.InvoiceDaysToPay)
	v.SetDefault("documents.estimateDaysValid", defaults.EstimateDaysValid)
	v.SetDefault("documents.depositPercent", defaults.DepositPercentValue)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := unmarshalDocumentDefaults(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticDocumentDefaultsHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalDocumentDefaults(v)
		if err != nil {
			log.Warn("invalid document defaults ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("document defaults reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *DocumentDefaultsHolder) Get() DocumentDefaults {
	return h.current.Load().(DocumentDefaults)
}

func unmarshalDocumentDefaults(v *viper.Viper) (DocumentDefaults, error) {
	var cfg DocumentDefaults
	if err := v.UnmarshalKey("documents", &cfg); err != nil {
		return DocumentDefaults{}, err
	}
	cfg.InvoicePrefix = strings.TrimSpace(cfg.InvoicePrefix)
	cfg.EstimatePrefix = strings.TrimSpace(cfg.EstimatePrefix)
	cfg.DepositPercent = decimal.NewFromFloat(cfg.DepositPercentValue)
	if err := validateDocumentDefaults(cfg); err != nil {
		return DocumentDefaults{}, err
	}
	return cfg, nil
}

func validateDocumentDefaults(cfg DocumentDefaults) error {
	if cfg.InvoicePrefix == "" || cfg.EstimatePrefix == "" {
		return errors.New("documents prefixes cannot be empty")
	}
	if cfg.InvoiceDaysToPay < 0 || cfg.EstimateDaysValid < 0 {
		return errors.New("documents validity days cannot be negative")
	}
	if cfg.DepositPercent.IsNegative() || cfg.DepositPercent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("documents.depositPercent must be within 0..100")
	}
	return nil
}
