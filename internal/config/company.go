package config

// Company carries the fixed identity and legal constants printed on every
// document. Renderers consume these as-is; none of it influences the
// lifecycle engine.
type Company struct {
	Name      string
	Address   string
	Email     string
	Phone     string
	SIREN     string
	SIRET     string
	VATNumber string
	LegalForm string
	Capital   string
	RCS       string

	BankBIC  string
	BankIBAN string

	Currency         string
	CurrencyPosition string // "before" ou "after"
	PaymentTerms     string
}

// DefaultCompany returns the SEE ALL AVKN constants.
func DefaultCompany() Company {
	return Company{
		Name:      "SEE ALL AVKN",
		Address:   "38 rue Dunois\n75013 PARIS",
		Email:     "michael@seeall.fr",
		SIREN:     "951 474 709",
		SIRET:     "95147470900015",
		VATNumber: "FR95951474709",
		LegalForm: "SAS",
		Capital:   "1 000,00 €",
		RCS:       "951 474 709 R.C.S. Paris",

		BankBIC:  "CMCIFRPP",
		BankIBAN: "FR76 3006 6109 4100 0210 0820 254",

		Currency:         "€",
		CurrencyPosition: "after",
		PaymentTerms:     "VIREMENT",
	}
}

// LegalText is the company identification line printed at the bottom of
// quotes and invoices.
func (c Company) LegalText() string {
	return "La Société dénommée " + c.Name + ", " + c.LegalForm +
		", au capital social de " + c.Capital +
		", inscrit sous le numéro de Siren " + c.SIREN +
		"/ Siret n°" + c.SIRET + " au RCS de PARIS"
}

// PaymentConditions is the late-payment boilerplate required on invoices.
func (c Company) PaymentConditions() string {
	return "(En cas de retard de paiement, une pénalité égale à trois fois le taux " +
		"d'intérêt légal sera exigible et une indemnité pour frais de recouvrement " +
		"de 40€ sera appliquée article L.441-6). Nos conditions de ventes ne " +
		"prévoient pas d'escompte en cas de paiement anticipé."
}
