package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a central server address in format [host]:[port]
//	-kiosk-address agent kiosk API address in format [host]:[port]
//	-d central database DSN
//	-local-dsn agent local SQLite path
//	-c/-config json file path with configs
//	-central-address central server base URL (agent side)
//	-matcher-address biometric matcher base URL
//	-sms-gateway-address SMS gateway base URL
//	-token-sign-key device token signing key
//	-token-issuer device token issuer name
//	-token-duration device token duration (e.g., "24h")
//	-device-id edge device identifier
//	-device-secret edge device storage secret
//	-enrolment-secret device enrolment shared secret
//	-sync-interval offline queue drain interval (e.g., "1m")
//	-request-timeout request timeout (e.g., "30s", "1m")
func ParseFlags() *StructuredConfig {
	var serverAddress, kioskAddress NetAddress
	var databaseDSN string
	var localDSN string
	var jsonConfigPath string
	var centralAddress string
	var matcherAddress string
	var smsGatewayAddress string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var deviceID string
	var deviceSecret string
	var enrolmentSecret string
	var consentSignKey string
	var syncInterval time.Duration
	var requestTimeout time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.Var(&kioskAddress, "kiosk-address", "Agent kiosk API address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&localDSN, "local-dsn", "", "Agent local SQLite path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&centralAddress, "central-address", "", "Central server base URL")
	flag.StringVar(&matcherAddress, "matcher-address", "", "Biometric matcher base URL")
	flag.StringVar(&smsGatewayAddress, "sms-gateway-address", "", "SMS gateway base URL")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Device token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Device token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Device token duration (e.g., 24h)")
	flag.StringVar(&deviceID, "device-id", "", "Edge device identifier")
	flag.StringVar(&deviceSecret, "device-secret", "", "Edge device storage secret")
	flag.StringVar(&enrolmentSecret, "enrolment-secret", "", "Device enrolment shared secret")
	flag.StringVar(&consentSignKey, "consent-sign-key", "", "Consent proof signing key")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Offline queue drain interval (e.g., 1m)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			TokenSignKey:    tokenSignKey,
			TokenIssuer:     tokenIssuer,
			TokenDuration:   tokenDuration,
			EnrolmentSecret: enrolmentSecret,
			ConsentSignKey:  consentSignKey,
			DeviceID:        deviceID,
			DeviceSecret:    deviceSecret,
		},
		Sync: Sync{
			Interval: syncInterval,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Local: LocalDB{
				DSN: localDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			KioskAddress:   kioskAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			CentralAddress:    centralAddress,
			MatcherAddress:    matcherAddress,
			SMSGatewayAddress: smsGatewayAddress,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns the empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
