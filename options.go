package mailprobe

import "time"

// DefaultSenderAddress is used for MAIL FROM when Config.SenderAddress is
// empty. Its domain is deliberately undeliverable.
const DefaultSenderAddress = "nobody@nonexistant.com"

// Config configures a Verifier. The zero value is usable; unset fields take
// the defaults listed below.
type Config struct {
	// SenderAddress is sent in MAIL FROM. Some servers only answer RCPT TO
	// truthfully for a plausible sender, so use a real address of yours.
	// Default: DefaultSenderAddress
	SenderAddress string `yaml:"sender_address"`
	// HeloDomain is announced with HELO. Default: the domain of SenderAddress
	HeloDomain string `yaml:"helo_domain"`
	// Port is the SMTP port. Default: "25"
	Port string `yaml:"port"`
	// Nameservers are queried for MX records, host or host:port.
	// Default: the servers of /etc/resolv.conf
	Nameservers []string `yaml:"nameservers"`
	// DNSTimeout bounds each MX query. Default: 5s
	DNSTimeout time.Duration `yaml:"dns_timeout"`
	// ConnectTimeout bounds each TCP connect. Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// CommandTimeout bounds each SMTP command exchange. Default: 10s
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

func defaultConfig() Config {
	return Config{
		SenderAddress:  DefaultSenderAddress,
		Port:           "25",
		DNSTimeout:     5 * time.Second,
		ConnectTimeout: 5 * time.Second,
		CommandTimeout: 10 * time.Second,
	}
}

// withDefaults fills the unset fields of c.
func (c Config) withDefaults() Config {
	def := defaultConfig()
	if c.SenderAddress == "" {
		c.SenderAddress = def.SenderAddress
	}
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.DNSTimeout <= 0 {
		c.DNSTimeout = def.DNSTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = def.CommandTimeout
	}
	return c
}

// ConcurrencyOptions configures concurrent processing for VerifyMany.
type ConcurrencyOptions struct {
	// Workers is the number of concurrent verifications. Default: 5
	Workers int
}
