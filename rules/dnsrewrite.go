package rules

import (
	"fmt"
	"net"
	"strings"

	"github.com/AdguardTeam/urlfilter/filterutil"
	"github.com/miekg/dns"
)

// DNSRewrite is a $dnsrewrite modifier payload.  It carries either an
// RCode override (NOERROR with no records, NXDOMAIN, or REFUSED) or a single
// resource-record override (A, AAAA, or CNAME).
type DNSRewrite struct {
	// RCode is the response code to rewrite the answer to.
	RCode int

	// RRType is the overridden record's type, zero if RCode alone applies.
	RRType uint16

	// Value is the overridden record's value: a net.IP for A/AAAA, or a
	// hostname string for CNAME.
	Value any
}

// loadDNSRewrite parses a $dnsrewrite modifier value.  Two forms are
// accepted: a bare short form ("NXDOMAIN", "REFUSED", "NOERROR") and the
// normal form "[rcode;]rrtype;value".  In the normal form a leading rcode
// field is accepted but not interpreted: the result's RCode is always
// NOERROR.
func loadDNSRewrite(value string) (*DNSRewrite, error) {
	if value == "" {
		return nil, fmt.Errorf("dnsrewrite: empty value")
	}

	if !strings.Contains(value, ";") {
		return loadDNSRewriteShort(value)
	}

	return loadDNSRewriteNormal(value)
}

func loadDNSRewriteShort(value string) (*DNSRewrite, error) {
	switch strings.ToUpper(value) {
	case "NXDOMAIN":
		return &DNSRewrite{RCode: dns.RcodeNameError}, nil
	case "REFUSED":
		return &DNSRewrite{RCode: dns.RcodeRefused}, nil
	case "NOERROR":
		return &DNSRewrite{RCode: dns.RcodeSuccess}, nil
	default:
		return nil, fmt.Errorf("dnsrewrite: unsupported short form %q", value)
	}
}

func loadDNSRewriteNormal(value string) (*DNSRewrite, error) {
	parts := strings.SplitN(value, ";", 3)

	var rrTypeStr, valueStr string
	switch len(parts) {
	case 2:
		rrTypeStr, valueStr = parts[0], parts[1]
	case 3:
		rrTypeStr, valueStr = parts[1], parts[2]
	default:
		return nil, fmt.Errorf("dnsrewrite: invalid value %q", value)
	}

	rr := &DNSRewrite{RCode: dns.RcodeSuccess}

	switch strings.ToUpper(rrTypeStr) {
	case "A":
		ip := filterutil.ParseIP(valueStr)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("dnsrewrite: invalid A record value %q", valueStr)
		}
		rr.RRType = dns.TypeA
		rr.Value = ip

	case "AAAA":
		ip := filterutil.ParseIP(valueStr)
		if ip == nil {
			return nil, fmt.Errorf("dnsrewrite: invalid AAAA record value %q", valueStr)
		}
		rr.RRType = dns.TypeAAAA
		rr.Value = ip

	case "CNAME":
		rr.RRType = dns.TypeCNAME
		rr.Value = strings.TrimSuffix(valueStr, ".") + "."

	default:
		return nil, fmt.Errorf("dnsrewrite: unsupported record type %q", rrTypeStr)
	}

	return rr, nil
}

// IP returns the rewrite's A/AAAA value, or nil if it is not an address
// rewrite.
func (r *DNSRewrite) IP() net.IP {
	ip, _ := r.Value.(net.IP)

	return ip
}

// CNAME returns the rewrite's CNAME target, or "" if it is not a CNAME
// rewrite.
func (r *DNSRewrite) CNAME() string {
	name, _ := r.Value.(string)

	return name
}
