package model

// RegexPatternInfo is one entry of the reusable pattern library shown to
// template authors. The catalog is reference data: the extraction engine
// never consults it.
type RegexPatternInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Regex       string `json:"regex"`
	Example     string `json:"example"`
	Group       int    `json:"group"`
}

// PatternCatalog returns the static library of patterns commonly needed when
// authoring fuel-invoice templates. Order is presentation order only.
func PatternCatalog() []RegexPatternInfo {
	return []RegexPatternInfo{
		{
			Name:        "date-italian",
			Description: "Date in dd/MM/yyyy form",
			Regex:       `(\d{2}/\d{2}/\d{4})`,
			Example:     "17/12/2024",
			Group:       1,
		},
		{
			Name:        "date-iso",
			Description: "Date in yyyy-MM-dd form",
			Regex:       `(\d{4}-\d{2}-\d{2})`,
			Example:     "2024-12-17",
			Group:       1,
		},
		{
			Name:        "timestamp-italian",
			Description: "Date and time in dd/MM/yyyy HH:mm:ss form",
			Regex:       `(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})`,
			Example:     "17/12/2024 18:38:00",
			Group:       1,
		},
		{
			Name:        "amount-euro",
			Description: "Amount with decimal comma, optionally suffixed Eu.",
			Regex:       `(\d+(?:\.\d{3})*,\d{2})\s*Eu`,
			Example:     "1.234,56 Eu.",
			Group:       1,
		},
		{
			Name:        "quantity-liters",
			Description: "Fuel quantity followed by the lt unit",
			Regex:       `(\d+(?:,\d+)?)\s*lt`,
			Example:     "16,41 lt",
			Group:       1,
		},
		{
			Name:        "odometer-km",
			Description: "Odometer reading after a Km: marker",
			Regex:       `Km:\s*(\d+)`,
			Example:     "Km:22947",
			Group:       1,
		},
		{
			Name:        "plate-italian",
			Description: "Italian license plate (post-1994 format)",
			Regex:       `\b([A-Z]{2}\s?\d{3}\s?[A-Z]{2})\b`,
			Example:     "AB123CD",
			Group:       1,
		},
		{
			Name:        "partita-iva",
			Description: "Italian VAT number (11 digits)",
			Regex:       `\b(\d{11})\b`,
			Example:     "00484960588",
			Group:       1,
		},
		{
			Name:        "codice-fiscale",
			Description: "Italian fiscal code for natural persons",
			Regex:       `\b([A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z])\b`,
			Example:     "RSSMRA85M01H501Z",
			Group:       1,
		},
		{
			Name:        "vin",
			Description: "Vehicle identification number (17 characters)",
			Regex:       `\b([A-HJ-NPR-Z0-9]{17})\b`,
			Example:     "ZFA25000001234567",
			Group:       1,
		},
		{
			Name:        "card-number",
			Description: "Fuel card number (8 or more digits, optional spacing)",
			Regex:       `\b(\d[\d ]{6,}\d)\b`,
			Example:     "7002 1234 5678",
			Group:       1,
		},
	}
}
