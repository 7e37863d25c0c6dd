package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	NationalCode string `json:"national_code" validate:"required,national_code"`
	Phone        string `json:"phone" validate:"omitempty,max=20,phone"`
	Gender       string `json:"gender" validate:"required,gender"`
	Role         string `json:"role" validate:"omitempty,staff_role"`
	Peer         string `json:"peer" validate:"omitempty,peer_standing"`
	Born         string `json:"born" validate:"omitempty,datetime=2006-01-02"`
	Score        *int   `json:"score" validate:"required,min=0"`
	Internal     string `json:"-"`
}

func intPtr(v int) *int { return &v }

func TestIsNationalCode(t *testing.T) {
	cases := map[string]bool{
		"1234567890":   true,
		"0000000000":   true,
		"123456789":    false,
		"12345678901":  false,
		"12345a7890":   false,
		"":             false,
		"123 4567890":  false,
		"۱۲۳۴۵۶۷۸۹۰":   false,
		"-123456789":   false,
		"１２３４５６７８９０": false,
	}
	for code, want := range cases {
		assert.Equal(t, want, IsNationalCode(code), code)
	}
}

func TestNormalizeNationalCodeTrims(t *testing.T) {
	assert.Equal(t, "1234567890", NormalizeNationalCode("  1234567890\n"))
	assert.True(t, IsNationalCode(NormalizeNationalCode(" 1234567890 ")))
}

func TestNormalizeNationalCodeLocalDigits(t *testing.T) {
	assert.Equal(t, "1234567890", NormalizeNationalCode("۱۲۳۴۵۶۷۸۹۰"))
	assert.Equal(t, "0012345678", NormalizeNationalCode(" ٠٠١٢٣٤٥٦٧٨ "))
	assert.Equal(t, "123451234a", NormalizeNationalCode("12345۱۲۳۴a"))
	assert.False(t, IsNationalCode(NormalizeNationalCode("12345۱۲۳۴a")))
	assert.False(t, IsNationalCode(NormalizeNationalCode("۱۲۳۴۵۶۷۸۹")))
	assert.False(t, IsNationalCode(NormalizeNationalCode("１２３４５６７８９０")))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "09121234567", NormalizePhone("0912 123-4567"))
	assert.Equal(t, "989121234567", NormalizePhone("+98 (912) 123 4567"))
	assert.Equal(t, "09121234567", NormalizePhone("۰۹۱۲ ۱۲۳ ۴۵۶۷"))
	assert.Equal(t, "", NormalizePhone("call me"))
}

func TestValidatorAcceptsPaddedAndLocalDigitCodes(t *testing.T) {
	v := New()
	padded := sampleForm{NationalCode: strings.Repeat(" ", 40) + "1234567890\t", Gender: "F", Score: intPtr(1)}
	require.NoError(t, v.Struct(padded))

	persian := sampleForm{NationalCode: "۱۲۳۴۵۶۷۸۹۰", Phone: "۰۹۱۲-۱۲۳-۴۵۶۷", Gender: "F", Score: intPtr(1)}
	require.NoError(t, v.Struct(persian))
}

func TestValidatorAcceptsValidForm(t *testing.T) {
	v := New()
	form := sampleForm{NationalCode: " 1234567890 ", Phone: "0912-123-4567", Gender: "F", Role: "THERAPIST", Peer: "1.5", Born: "2015-04-01", Score: intPtr(0)}
	require.NoError(t, v.Struct(form))
}

func TestValidatorReportsFieldErrors(t *testing.T) {
	v := New()
	form := sampleForm{NationalCode: "12345", Phone: "12-34", Gender: "X", Role: "CLIENT", Peer: "3", Born: "01/04/2015"}
	err := v.Struct(form)
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "national code must be exactly 10 digits", fields["national_code"])
	assert.Contains(t, fields["phone"], "at least 10 digits")
	assert.Equal(t, "must be one of F, M, O", fields["gender"])
	assert.Contains(t, fields["role"], "ADMIN")
	assert.Contains(t, fields["peer"], "1.5")
	assert.Contains(t, fields["born"], "YYYY-MM-DD")
	assert.Equal(t, "this field is required", fields["score"])
}

func TestValidatorRejectsNegativeScore(t *testing.T) {
	v := New()
	err := v.Struct(sampleForm{NationalCode: "1234567890", Gender: "M", Score: intPtr(-1)})
	require.Error(t, err)
	assert.Equal(t, "must be greater than or equal to 0", FieldErrors(err)["score"])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}

func TestRules(t *testing.T) {
	rules := Rules(&sampleForm{})
	assert.Equal(t, "required,national_code", rules["national_code"])
	assert.Equal(t, "omitempty,max=20,phone", rules["phone"])
	_, hidden := rules["Internal"]
	assert.False(t, hidden)
	assert.Nil(t, Rules("not a struct"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2015-04-01")
	require.NoError(t, err)
	assert.Equal(t, 2015, d.Year())
	_, err = ParseDate("2015-13-01")
	assert.Error(t, err)
}
