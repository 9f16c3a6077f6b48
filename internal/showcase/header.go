package showcase

import (
	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

const headerLimitMessage = "máximo de 5 botões no cabeçalho"

// ToggleHeaderButton removes id when selected and appends it otherwise.
// Selecting a sixth button is rejected rather than truncated.
func ToggleHeaderButton(ids []string, id string, buttons []domain.ProfileButton) ([]string, error) {
	if !hasButton(buttons, id) {
		return nil, &domain.ErrValidation{Field: "headerButtonIds", Message: "botão não pertence a este perfil"}
	}
	out := make([]string, 0, len(ids)+1)
	removed := false
	for _, cur := range ids {
		if cur == id {
			removed = true
			continue
		}
		out = append(out, cur)
	}
	if removed {
		return out, nil
	}
	if len(ids) >= domain.MaxHeaderButtons {
		return nil, &domain.ErrValidation{Field: "headerButtonIds", Message: headerLimitMessage}
	}
	return append(out, id), nil
}

// ValidateHeaderButtons checks a full replacement list.
func ValidateHeaderButtons(ids []string, buttons []domain.ProfileButton) error {
	if len(ids) > domain.MaxHeaderButtons {
		return &domain.ErrValidation{Field: "headerButtonIds", Message: headerLimitMessage}
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return &domain.ErrValidation{Field: "headerButtonIds", Message: "botão repetido"}
		}
		seen[id] = true
		if !hasButton(buttons, id) {
			return &domain.ErrValidation{Field: "headerButtonIds", Message: "botão não pertence a este perfil"}
		}
	}
	return nil
}

func hasButton(buttons []domain.ProfileButton, id string) bool {
	for _, b := range buttons {
		if b.ID == id {
			return true
		}
	}
	return false
}
