package extraction

import (
	"regexp"
	"strings"
	"unicode"
)

// Registration field keys
const (
	FieldNIT              = "nit"
	FieldCheckDigit       = "dv"
	FieldTaxOffice        = "tax_office"
	FieldTaxpayerType     = "taxpayer_type"
	FieldDocumentType     = "document_type"
	FieldDocumentTypeCode = "document_type_code"
	FieldIDNumber         = "id_number"
	FieldFirstSurname     = "first_surname"
	FieldSecondSurname    = "second_surname"
	FieldFirstName        = "first_name"
	FieldOtherNames       = "other_names"
	FieldCountry          = "country"
	FieldDepartment       = "department"
	FieldCity             = "city"
	FieldAddress          = "address"
)

const nameChars = `[A-ZÁÉÍÓÚÑ0-9\- \t]+`

// labelled fields printed as "NN. Label VALUE" on the form
var labelled = []struct {
	key string
	re  *regexp.Regexp
}{
	{FieldFirstSurname, regexp.MustCompile(`(?i:31\.\s*Primer apellido)[ \t]+(` + nameChars + `)`)},
	{FieldSecondSurname, regexp.MustCompile(`(?i:32\.\s*Segundo apellido)[ \t]+(` + nameChars + `)`)},
	{FieldFirstName, regexp.MustCompile(`(?i:33\.\s*Primer nombre)[ \t]+(` + nameChars + `)`)},
	{FieldOtherNames, regexp.MustCompile(`(?i:34\.\s*Otros nombres)[ \t]+(` + nameChars + `)`)},
	{FieldCountry, regexp.MustCompile(`(?i:38\.\s*País)[ \t]+(` + nameChars + `)`)},
	{FieldDepartment, regexp.MustCompile(`(?i:39\.\s*Departamento)[ \t]+(` + nameChars + `)`)},
	{FieldCity, regexp.MustCompile(`(?i:40\.\s*Ciudad/Municipio)[ \t]+(` + nameChars + `)`)},
	{FieldAddress, regexp.MustCompile(`(?i:41\.\s*Dirección principal)[ \t]+([A-ZÁÉÍÓÚÑ0-9,#.\- \t]+)`)},
}

// ParseRegistrationText extracts the fields of a Colombian tax registration
// (RUT) from the text of its first page. Fields that are not found are
// omitted.
func ParseRegistrationText(text string) map[string]string {
	out := make(map[string]string)

	for _, f := range labelled {
		if m := f.re.FindStringSubmatch(text); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				out[f.key] = v
			}
		}
	}

	lines := strings.Split(text, "\n")
	next := func(i int) []string {
		if i+1 < len(lines) {
			return strings.Fields(lines[i+1])
		}
		return nil
	}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "5. Número de Identificación Tributaria"):
			parseNIT(next(i), out)
		case strings.Contains(line, "24. Tipo de contribuyente"):
			parseTaxpayer(next(i), out)
		case strings.Contains(line, "26. Número de Identificación"):
			for _, tok := range next(i) {
				if isDigits(tok) && len(tok) >= 7 && len(tok) <= 11 {
					out[FieldIDNumber] = tok
					break
				}
			}
		}
	}
	return out
}

// parseNIT reads the NIT digits, whose last digit is the check digit,
// followed by the tax office name
func parseNIT(tokens []string, out map[string]string) {
	var digits strings.Builder
	i := 0
	for ; i < len(tokens) && isDigits(tokens[i]); i++ {
		digits.WriteString(tokens[i])
	}
	if nit := digits.String(); len(nit) >= 2 {
		out[FieldNIT] = nit[:len(nit)-1]
		out[FieldCheckDigit] = nit[len(nit)-1:]
	}

	var office []string
	for _, tok := range tokens[i:] {
		if isDigits(tok) {
			if len(office) > 0 {
				break
			}
			continue
		}
		if hasLetter(tok) || len(office) > 0 {
			office = append(office, tok)
		}
	}
	if len(office) > 0 {
		out[FieldTaxOffice] = strings.Join(office, " ")
	}
}

// parseTaxpayer reads the taxpayer type code, then the document type
// description and its two-digit code
func parseTaxpayer(tokens []string, out map[string]string) {
	start := -1
	for i, tok := range tokens {
		if isDigits(tok) {
			start = i
			break
		}
	}
	if start < 0 {
		return
	}
	out[FieldTaxpayerType] = tokens[start]

	var descr, code []string
	for _, tok := range tokens[start+1:] {
		if isDigits(tok) {
			code = append(code, tok)
			continue
		}
		if len(code) > 0 {
			break
		}
		if hasLetter(tok) || len(descr) > 0 {
			descr = append(descr, tok)
		}
	}
	if len(descr) > 0 {
		out[FieldDocumentType] = strings.Join(descr, " ")
	}
	if len(code) > 2 {
		code = code[:2]
	}
	if len(code) > 0 {
		out[FieldDocumentTypeCode] = strings.Join(code, "")
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
