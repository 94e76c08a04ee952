package finance

import (
	"sort"
	"strings"
)

// categoryNames maps 2-digit ledger prefixes to Dutch category labels.
var categoryNames = map[string]string{
	"40": "Personeelskosten",
	"41": "Huisvestingskosten",
	"42": "Vervoerskosten",
	"43": "Kantoorkosten",
	"44": "Marketing & Reclame",
	"45": "Algemene Kosten",
	"46": "Overige Bedrijfskosten",
	"47": "Financiële Lasten",
	"48": "Afschrijvingen",
	"49": "Overige Kosten",
	"70": "Kostprijs Verkopen",
	"71": "Kostprijs Verkopen",
	"72": "Kostprijs Verkopen",
	"73": "Kostprijs Verkopen",
	"74": "Kostprijs Verkopen",
	"75": "Kostprijs Verkopen",
	"80": "Omzet",
	"81": "Omzet",
	"82": "Omzet",
	"83": "Omzet",
	"84": "Omzet",
	"85": "Omzet",
}

// CategoryName returns the Dutch category label for a ledger code.
func CategoryName(accountCode string) string {
	if len(accountCode) < 2 {
		return "Overig"
	}
	prefix := accountCode[:2]
	if name, ok := categoryNames[prefix]; ok {
		return name
	}
	return "Categorie " + prefix
}

// accountNames translates the English account names of the group's chart
// of accounts to Dutch. The books run an English localization while every
// report is read in Dutch.
var accountNames = map[string]string{
	// Personeelskosten (40)
	"Gross wages":                                       "Brutolonen",
	"Bonuses and commissions":                           "Bonussen en provisies",
	"Holiday allowance":                                 "Vakantietoeslag",
	"Royalty":                                           "Tantièmes",
	"Employee car contribution":                         "Eigen bijdrage auto",
	"Healthcare Insurance Act (SVW) contribution":       "ZVW-bijdrage",
	"Employer's share of payroll taxes":                 "Werkgeverslasten loonheffing",
	"Employer's share of pensions":                      "Pensioenpremie werkgever",
	"Employer's share of social security contributions": "Sociale lasten werkgever",
	"Provision for holidays":                            "Reservering vakantiedagen",
	"Compensation for commuting":                        "Reiskostenvergoeding",
	"Reimbursement of study costs":                      "Studiekostenvergoeding",
	"Reimbursement of other travel expenses":            "Overige reiskostenvergoeding",
	"Reimbursement of other expenses":                   "Overige onkostenvergoeding",
	"Management fees":                                   "Managementvergoeding",
	"Staff on loan":                                     "Ingehuurd personeel",
	"Working expenses scheme (WKR max 1.2% gross pay)":  "Werkkostenregeling (WKR)",
	"Travel costs of hired staff":                       "Reiskosten ingehuurd personeel",
	"Recharge of direct labour costs":                   "Doorbelaste personeelskosten",
	"Sick leave insurance":                              "Verzuimverzekering",
	"Canteen costs":                                     "Kantinekosten",
	"Corporate clothing":                                "Bedrijfskleding",
	"Other travel expenses":                             "Overige reiskosten",
	"Conferences, seminars and symposia":                "Congressen en seminars",
	"Staff recruitment costs":                           "Wervingskosten personeel",
	"Study and training costs":                          "Opleidingskosten",
	"Other personnel costs":                             "Overige personeelskosten",
	"Temporary staff":                                   "Uitzendkrachten",

	// Huisvestingskosten (41)
	"Property rental":              "Huur bedrijfspand",
	"Major property maintenance":   "Groot onderhoud pand",
	"Small property maintenance":   "Klein onderhoud pand",
	"Cleaning and window cleaning": "Schoonmaak en glazenwassen",
	"Gas":                          "Gas",
	"Electricity":                  "Elektriciteit",
	"Water":                        "Water",
	"Property insurance":           "Opstalverzekering",
	"Property taxes":               "Onroerendezaakbelasting",
	"Other property costs":         "Overige huisvestingskosten",

	// Vervoerskosten (42)
	"Car leasing":             "Autoleasing",
	"Fuel costs":              "Brandstofkosten",
	"Repair and maintenance":  "Reparatie en onderhoud",
	"Motor vehicle insurance": "Motorrijtuigenverzekering",
	"Motor vehicle tax":       "Motorrijtuigenbelasting",
	"Transport costs":         "Transportkosten",
	"Other vehicle costs":     "Overige autokosten",
	"Parking costs":           "Parkeerkosten",

	// Kantoorkosten (43)
	"Office supplies":      "Kantoorbenodigdheden",
	"Printing and copying": "Drukwerk en kopieerkosten",
	"Telephone and fax":    "Telefoon en fax",
	"Internet costs":       "Internetkosten",
	"Postage costs":        "Portokosten",
	"Software":             "Software",
	"Computer costs":       "Computerkosten",
	"Other office costs":   "Overige kantoorkosten",

	// Marketing & Reclame (44)
	"Advertising costs":           "Advertentiekosten",
	"Promotional material":        "Promotiemateriaal",
	"Trade fairs and exhibitions": "Beurzen en exposities",
	"Website costs":               "Websitekosten",
	"Public relations":            "Public relations",
	"Sponsoring":                  "Sponsoring",
	"Other marketing costs":       "Overige marketingkosten",

	// Algemene Kosten (45)
	"External advice":      "Extern advies",
	"Accountant costs":     "Accountantskosten",
	"Legal costs":          "Juridische kosten",
	"Audit fees":           "Controlekosten",
	"Consultancy fees":     "Advieskosten",
	"Administration costs": "Administratiekosten",
	"Collection costs":     "Incassokosten",
	"Other external costs": "Overige externe kosten",

	// Overige Bedrijfskosten (46)
	"Bank charges":                  "Bankkosten",
	"Payment service charges":       "Betalingsverkeerskosten",
	"Insurance":                     "Verzekeringen",
	"Subscriptions and memberships": "Abonnementen en lidmaatschappen",
	"Gifts and donations":           "Giften en donaties",
	"Entertainment expenses":        "Representatiekosten",
	"Other operating costs":         "Overige bedrijfskosten",

	// Financiële Lasten (47)
	"Interest expenses":            "Rentelasten",
	"Bank interest":                "Bankrente",
	"Interest on loans":            "Rente op leningen",
	"Interest and similar charges": "Rente en soortgelijke kosten",
	"Exchange differences":         "Koersverschillen",
	"Other financial costs":        "Overige financiële kosten",

	// Afschrijvingen (48)
	"Depreciation of buildings":                 "Afschrijving gebouwen",
	"Depreciation of machines":                  "Afschrijving machines",
	"Depreciation of passenger cars":            "Afschrijving personenauto's",
	"Depreciation of other transport equipment": "Afschrijving overig vervoer",
	"Depreciation of trucks":                    "Afschrijving vrachtwagens",
	"Depreciation of furniture and fixtures":    "Afschrijving inventaris",
	"Depreciation of computer equipment":        "Afschrijving computers",
	"Depreciation of intangible assets":         "Afschrijving immateriële activa",
	"Other depreciation":                        "Overige afschrijvingen",
	"Depreciation of tools":                     "Afschrijving gereedschap",

	// Omzet (80)
	"Product sales":      "Productverkopen",
	"Service revenue":    "Omzet diensten",
	"Other revenue":      "Overige omzet",
	"Revenue from goods": "Omzet goederen",
	"Domestic sales":     "Binnenlandse verkopen",
	"Export sales":       "Exportverkopen",
	"Intercompany sales": "Intercompany verkopen",

	// Kostprijs verkopen (70)
	"Cost of goods sold":  "Kostprijs verkopen",
	"Cost of materials":   "Materiaalkosten",
	"Direct labour costs": "Directe loonkosten",
	"Production costs":    "Productiekosten",
	"Purchase costs":      "Inkoopkosten",
	"Subcontracting":      "Uitbesteed werk",

	// Balansposten
	"Accounts receivable": "Debiteuren",
	"Accounts payable":    "Crediteuren",
	"Bank":                "Bank",
	"Cash":                "Kas",
	"Prepaid expenses":    "Vooruitbetaalde kosten",
	"Accrued expenses":    "Nog te betalen kosten",
	"VAT receivable":      "Te vorderen BTW",
	"VAT payable":         "Af te dragen BTW",
	"Inventory":           "Voorraad",
	"Fixed assets":        "Vaste activa",

	// Intercompany
	"Intercompany receivables": "Vordering groepsmaatschappijen",
	"Intercompany payables":    "Schuld groepsmaatschappijen",
	"Current account":          "Rekening-courant",
}

// accountNameKeys holds the English names longest-first so substring
// translation prefers the most specific match ("Bank charges" before
// "Bank").
var accountNameKeys = func() []string {
	keys := make([]string, 0, len(accountNames))
	for k := range accountNames {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// TranslateAccountName renders an account name in Dutch when a
// translation is known. Exact matches win; otherwise the longest known
// English fragment inside the name is replaced in place.
func TranslateAccountName(name string) string {
	if name == "" {
		return name
	}
	if nl, ok := accountNames[name]; ok {
		return nl
	}
	lower := strings.ToLower(name)
	for _, eng := range accountNameKeys {
		if strings.Contains(lower, strings.ToLower(eng)) {
			return strings.Replace(name, eng, accountNames[eng], 1)
		}
	}
	return name
}
