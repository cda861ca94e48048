package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"hospital_billing/internal/domain/billing"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	DynamoDBEndpoint   string `mapstructure:"DYNAMODB_ENDPOINT"`
	InvoicesTable      string `mapstructure:"INVOICES_TABLE"`
	PaymentsTable      string `mapstructure:"PAYMENTS_TABLE"`

	AllowOverpayment bool `mapstructure:"BILLING_ALLOW_OVERPAYMENT"`
	ClampDiscount    bool `mapstructure:"BILLING_CLAMP_DISCOUNT"`
	PaymentRetries   int  `mapstructure:"PAYMENT_MAX_RETRIES"`

	MercadoPagoAccessToken string `mapstructure:"MERCADOPAGO_ACCESS_TOKEN"`
	PaymentGatewayMock     bool   `mapstructure:"PAYMENT_GATEWAY_MOCK"`

	// ClinicName is printed on invoice PDFs.
	ClinicName string `mapstructure:"CLINIC_NAME"`
}

var keys = []string{
	"PORT", "ENV",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "DYNAMODB_ENDPOINT",
	"INVOICES_TABLE", "PAYMENTS_TABLE",
	"BILLING_ALLOW_OVERPAYMENT", "BILLING_CLAMP_DISCOUNT", "PAYMENT_MAX_RETRIES",
	"MERCADOPAGO_ACCESS_TOKEN", "PAYMENT_GATEWAY_MOCK",
	"CLINIC_NAME",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("AWS_REGION", "us-east-1")
	// Local DynamoDB does not validate credentials, but the AWS SDK requires them.
	v.SetDefault("AWS_ACCESS_KEY_ID", "local")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "local")
	v.SetDefault("INVOICES_TABLE", "invoices")
	v.SetDefault("PAYMENTS_TABLE", "payments")
	v.SetDefault("BILLING_ALLOW_OVERPAYMENT", false)
	v.SetDefault("BILLING_CLAMP_DISCOUNT", false)
	v.SetDefault("PAYMENT_MAX_RETRIES", 3)
	v.SetDefault("PAYMENT_GATEWAY_MOCK", false)
	v.SetDefault("CLINIC_NAME", "Hospital Billing")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional, but a present one must parse.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Policy returns the billing rules configured for this deployment.
func (c *Config) Policy() billing.Policy {
	return billing.Policy{
		AllowOverpayment: c.AllowOverpayment,
		ClampDiscount:    c.ClampDiscount,
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.InvoicesTable == "" || c.PaymentsTable == "" {
		return fmt.Errorf("INVOICES_TABLE and PAYMENTS_TABLE must not be empty")
	}
	if c.InvoicesTable == c.PaymentsTable {
		return fmt.Errorf("INVOICES_TABLE and PAYMENTS_TABLE must differ, both are %q", c.InvoicesTable)
	}
	if c.PaymentRetries < 1 {
		return fmt.Errorf("PAYMENT_MAX_RETRIES must be at least 1, got %d", c.PaymentRetries)
	}
	if !c.IsDev() && !c.PaymentGatewayMock && c.MercadoPagoAccessToken == "" {
		return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required outside development unless PAYMENT_GATEWAY_MOCK is set")
	}
	return nil
}
