package valueobjects

type LicenseType string

const (
	TypeTrial        LicenseType = "trial"
	TypeStandard     LicenseType = "standard"
	TypeProfessional LicenseType = "professional"
	TypeEnterprise   LicenseType = "enterprise"
)

func (t LicenseType) String() string {
	return string(t)
}

var ValidTypes = map[LicenseType]bool{
	TypeTrial:        true,
	TypeStandard:     true,
	TypeProfessional: true,
	TypeEnterprise:   true,
}
