package dns

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

var publicResolvers = []string{"1.1.1.1:53", "8.8.8.8:53"}

const queryTimeout = 3 * time.Second

// VerifyDNSRecord confirms the hostname publishes a TXT record equal to
// the verification code. Public resolvers are tried first so stale
// records in a local cache do not block ownership checks; the system
// resolver is the fallback for air-gapped environments.
func VerifyDNSRecord(hostname, code string) error {
	if strings.TrimSpace(hostname) == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("verification code cannot be empty")
	}

	fqdn := dns.Fqdn(hostname)

	for _, resolver := range publicResolvers {
		records, err := lookupTXT(fqdn, resolver)
		if err != nil {
			zap.L().Debug("TXT lookup failed", zap.String("resolver", resolver), zap.Error(err))
			continue
		}
		if containsCode(records, code) {
			zap.L().Info("domain ownership verified",
				zap.String("hostname", hostname),
				zap.String("resolver", resolver),
			)
			return nil
		}
	}

	records, err := net.LookupTXT(hostname)
	if err != nil {
		return fmt.Errorf("TXT lookup for %s: %w", hostname, err)
	}
	if containsCode(records, code) {
		zap.L().Info("domain ownership verified", zap.String("hostname", hostname), zap.String("resolver", "system"))
		return nil
	}

	return fmt.Errorf("no matching TXT record found for %s", hostname)
}

func lookupTXT(fqdn, resolver string) ([]string, error) {
	client := &dns.Client{Timeout: queryTimeout}

	msg := dns.Msg{}
	msg.SetQuestion(fqdn, dns.TypeTXT)

	resp, _, err := client.Exchange(&msg, resolver)
	if err != nil {
		return nil, err
	}

	var records []string
	for _, ans := range resp.Answer {
		if txt, ok := ans.(*dns.TXT); ok {
			records = append(records, txt.Txt...)
		}
	}
	return records, nil
}

func containsCode(records []string, code string) bool {
	for _, r := range records {
		if strings.TrimSpace(r) == code {
			return true
		}
	}
	return false
}
