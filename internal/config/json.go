package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		TokenSignKey    string   `json:"token_sign_key"`
		TokenIssuer     string   `json:"token_issuer"`
		TokenDuration   Duration `json:"token_duration"`
		EnrolmentSecret string   `json:"enrolment_secret"`
		ConsentSignKey  string   `json:"consent_sign_key"`
		DeviceID        string   `json:"device_id"`
		DeviceSecret    string   `json:"device_secret"`
	} `json:"app,omitempty"`

	Auth struct {
		SessionTTL         Duration `json:"session_ttl"`
		MaxPrimaryFailures int      `json:"max_primary_failures"`
		BiometricThreshold float64  `json:"biometric_threshold"`
		OTPExpiry          Duration `json:"otp_expiry"`
		OTPDeliveryTimeout Duration `json:"otp_delivery_timeout"`
		PINLength          int      `json:"pin_length"`
		CapabilityTimeout  Duration `json:"capability_timeout"`
	} `json:"auth,omitempty"`

	Lockout struct {
		FailureThreshold int      `json:"failure_threshold"`
		Window           Duration `json:"window"`
		Duration         Duration `json:"duration"`
		PollInterval     Duration `json:"poll_interval"`
	} `json:"lockout,omitempty"`

	Sync struct {
		Interval   Duration `json:"interval"`
		MaxRetries int      `json:"max_retries"`
		BaseDelay  Duration `json:"base_delay"`
		MaxDelay   Duration `json:"max_delay"`
		BatchSize  int      `json:"batch_size"`
	} `json:"sync,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
		Local struct {
			DSN string `json:"dsn"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		KioskAddress   string   `json:"kiosk_address"`
		RequestTimeout Duration `json:"request_timeout"`
		RateLimitRPS   float64  `json:"rate_limit_rps"`
	} `json:"server,omitempty"`

	Adapter struct {
		CentralAddress    string   `json:"central_address"`
		MatcherAddress    string   `json:"matcher_address"`
		SMSGatewayAddress string   `json:"sms_gateway_address"`
		RequestTimeout    Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:    jsonCfg.App.TokenSignKey,
			TokenIssuer:     jsonCfg.App.TokenIssuer,
			TokenDuration:   time.Duration(jsonCfg.App.TokenDuration),
			EnrolmentSecret: jsonCfg.App.EnrolmentSecret,
			ConsentSignKey:  jsonCfg.App.ConsentSignKey,
			DeviceID:        jsonCfg.App.DeviceID,
			DeviceSecret:    jsonCfg.App.DeviceSecret,
		},
		Auth: Auth{
			SessionTTL:         time.Duration(jsonCfg.Auth.SessionTTL),
			MaxPrimaryFailures: jsonCfg.Auth.MaxPrimaryFailures,
			BiometricThreshold: jsonCfg.Auth.BiometricThreshold,
			OTPExpiry:          time.Duration(jsonCfg.Auth.OTPExpiry),
			OTPDeliveryTimeout: time.Duration(jsonCfg.Auth.OTPDeliveryTimeout),
			PINLength:          jsonCfg.Auth.PINLength,
			CapabilityTimeout:  time.Duration(jsonCfg.Auth.CapabilityTimeout),
		},
		Lockout: Lockout{
			FailureThreshold: jsonCfg.Lockout.FailureThreshold,
			Window:           time.Duration(jsonCfg.Lockout.Window),
			Duration:         time.Duration(jsonCfg.Lockout.Duration),
			PollInterval:     time.Duration(jsonCfg.Lockout.PollInterval),
		},
		Sync: Sync{
			Interval:   time.Duration(jsonCfg.Sync.Interval),
			MaxRetries: jsonCfg.Sync.MaxRetries,
			BaseDelay:  time.Duration(jsonCfg.Sync.BaseDelay),
			MaxDelay:   time.Duration(jsonCfg.Sync.MaxDelay),
			BatchSize:  jsonCfg.Sync.BatchSize,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: LocalDB{
				DSN: jsonCfg.Storage.Local.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			KioskAddress:   jsonCfg.Server.KioskAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			RateLimitRPS:   jsonCfg.Server.RateLimitRPS,
		},
		Adapter: Adapter{
			CentralAddress:    jsonCfg.Adapter.CentralAddress,
			MatcherAddress:    jsonCfg.Adapter.MatcherAddress,
			SMSGatewayAddress: jsonCfg.Adapter.SMSGatewayAddress,
			RequestTimeout:    time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
