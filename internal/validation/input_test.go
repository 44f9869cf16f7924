package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"user.name+tag@example.co.uk",
		"a@b.io",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"user@@example.com",
		"user@localhost",
		"юзер@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ivan_petrov"))
	assert.NoError(t, ValidateUsername("dev42"))

	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("1ivan"))
	assert.Error(t, ValidateUsername("ivan petrov"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", MaxUsernameLength+1)))
}

func TestValidateAmountCents(t *testing.T) {
	assert.NoError(t, ValidateAmountCents("сумма", 1))
	assert.NoError(t, ValidateAmountCents("сумма", 50_000))

	assert.Error(t, ValidateAmountCents("сумма", 0))
	assert.Error(t, ValidateAmountCents("сумма", -100))
	assert.Error(t, ValidateAmountCents("сумма", MaxAmountCents+1))
}

func TestValidateMilestoneAmounts(t *testing.T) {
	assert.NoError(t, ValidateMilestoneAmounts(100_000, []int64{40_000, 60_000}))
	assert.NoError(t, ValidateMilestoneAmounts(100_000, []int64{100_000}))

	err := ValidateMilestoneAmounts(100_000, []int64{40_000, 50_000})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не совпадает с бюджетом")

	err = ValidateMilestoneAmounts(100_000, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "хотя бы один этап")

	// Нулевой этап недопустим даже при совпадении суммы
	assert.Error(t, ValidateMilestoneAmounts(100_000, []int64{100_000, 0}))

	tooMany := make([]int64, MaxMilestones+1)
	for i := range tooMany {
		tooMany[i] = 1
	}
	assert.Error(t, ValidateMilestoneAmounts(int64(len(tooMany)), tooMany))
}

func TestValidateProjectTitle(t *testing.T) {
	assert.NoError(t, ValidateProjectTitle("Лендинг для кофейни"))

	assert.Error(t, ValidateProjectTitle(""))
	assert.Error(t, ValidateProjectTitle("ab"))
	assert.Error(t, ValidateProjectTitle(strings.Repeat("а", MaxProjectTitleLength+1)))
}

func TestValidateReason(t *testing.T) {
	assert.NoError(t, ValidateReason("работа не соответствует описанию этапа"))

	assert.Error(t, ValidateReason(""))
	assert.Error(t, ValidateReason("коротко"))
}

func TestValidateSkills(t *testing.T) {
	assert.NoError(t, ValidateSkills([]string{"Go", "PostgreSQL", "Docker"}))
	assert.NoError(t, ValidateSkills(nil))

	assert.Error(t, ValidateSkills([]string{"Go", "go"}))
	assert.Error(t, ValidateSkills([]string{""}))
	assert.Error(t, ValidateSkills([]string{strings.Repeat("a", MaxSkillLength+1)}))
}

func TestValidateExternalLink(t *testing.T) {
	assert.NoError(t, ValidateExternalLink("https://github.com/user/repo"))
	assert.NoError(t, ValidateExternalLink(""))

	assert.Error(t, ValidateExternalLink("ftp://files.example.com"))
	assert.Error(t, ValidateExternalLink("example.com/no-scheme"))
}

func TestValidateEvidenceURLs(t *testing.T) {
	assert.NoError(t, ValidateEvidenceURLs([]string{"https://example.com/screenshot.png"}))

	tooMany := make([]string, MaxEvidenceURLs+1)
	for i := range tooMany {
		tooMany[i] = "https://example.com/file"
	}
	assert.Error(t, ValidateEvidenceURLs(tooMany))
	assert.Error(t, ValidateEvidenceURLs([]string{"not-a-url"}))
}

func TestValidateDeliveryFiles(t *testing.T) {
	assert.NoError(t, ValidateDeliveryFiles([]string{"/files/user/report.pdf"}))

	assert.Error(t, ValidateDeliveryFiles(nil))
	assert.Error(t, ValidateDeliveryFiles([]string{"  "}))

	tooMany := make([]string, MaxDeliveryFiles+1)
	for i := range tooMany {
		tooMany[i] = "file"
	}
	assert.Error(t, ValidateDeliveryFiles(tooMany))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ngPass"))

	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("ALLUPPERCASE1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}
