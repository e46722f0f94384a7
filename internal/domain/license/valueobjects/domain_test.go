package valueobjects

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"WWW.Example.COM", "example.com"},
		{"  www.example.com.  ", "example.com"},
		{"www.www.example.com", "www.example.com"},
		{"sub.example.com", "sub.example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}

func TestDomainList_Allows(t *testing.T) {
	list := NewDomainList([]string{"example.com"})

	assert.True(t, list.Allows("www.example.com"))
	assert.True(t, list.Allows("EXAMPLE.com"))
	assert.False(t, list.Allows("other.com"))
	assert.False(t, list.Allows("sub.example.com"))
}

func TestDomainList_EmptyIsUnrestricted(t *testing.T) {
	assert.Nil(t, NewDomainList(nil))
	assert.Nil(t, NewDomainList([]string{"", "  "}))
	assert.True(t, NewDomainList(nil).Allows("anything.org"))
}

func TestNewDomainList_Dedupes(t *testing.T) {
	list := NewDomainList([]string{"Example.com", "www.example.com", "shop.example.com"})
	assert.Equal(t, []string{"example.com", "shop.example.com"}, list.Strings())
}

func TestNormalizeDomain_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	label := gen.RegexMatch(`d[a-z0-9]{0,10}\.[a-z]{2,5}`)

	properties.Property("normalized lowercase hosts are fixed points", prop.ForAll(
		func(host string) bool {
			return NormalizeDomain(strings.ToUpper(host)) == host
		},
		label,
	))

	properties.Property("www prefix and case never change the match", prop.ForAll(
		func(host string, upper bool) bool {
			candidate := "www." + host
			if upper {
				candidate = strings.ToUpper(candidate)
			}
			return NewDomainList([]string{host}).Allows(candidate)
		},
		label,
		gen.Bool(),
	))

	properties.Property("a different registrable domain never matches", prop.ForAll(
		func(host string) bool {
			return !NewDomainList([]string{host}).Allows("x" + host)
		},
		label,
	))

	properties.TestingRun(t)
}
