package ledger

// Predicados de validação aplicados antes de qualquer mutação. Cada checagem
// que falha retorna um erro distinto identificando o campo; nenhuma checagem
// muta estado e todas são idempotentes.

// MaxMarketplaceFee é o teto da taxa do mercado em basis points (10%).
const MaxMarketplaceFee = 1000

// ValidatePropertyData valida os campos de criação de um imóvel.
func ValidatePropertyData(name, address string, totalValue, tokenSupply uint64, yieldPercentage uint8) error {
	if name == "" || len(name) > PropertyNameLen {
		return newValidationError("name", "deve ter entre 1 e 64 caracteres")
	}
	if address == "" || len(address) > PropertyAddressLen {
		return newValidationError("address", "deve ter entre 1 e 128 caracteres")
	}
	if totalValue == 0 {
		return newValidationError("total_value", "deve ser maior que zero")
	}
	if tokenSupply == 0 {
		return newValidationError("token_supply", "deve ser maior que zero")
	}
	if yieldPercentage > 100 {
		return newValidationError("yield_percentage", "deve estar entre 0 e 100")
	}
	return nil
}

// ValidateListingData valida os campos de criação de uma listagem.
func ValidateListingData(pricePerToken, tokenAmount uint64) error {
	if pricePerToken == 0 {
		return newValidationError("price_per_token", "deve ser maior que zero")
	}
	if tokenAmount == 0 {
		return newValidationError("token_amount", "deve ser maior que zero")
	}
	return nil
}

// ValidateAmount valida uma quantidade de tokens em compra ou trade.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return newValidationError("amount", "deve ser maior que zero")
	}
	return nil
}

// ValidateFee valida a taxa do mercado contra o teto de 1000 bps.
func ValidateFee(fee uint16) error {
	if fee > MaxMarketplaceFee {
		return ErrFeeTooHigh
	}
	return nil
}

// ValidateVerifierData valida os campos de cadastro de um verificador.
func ValidateVerifierData(name, url string) error {
	if name == "" || len(name) > VerifierNameLen {
		return newValidationError("name", "deve ter entre 1 e 64 caracteres")
	}
	if url == "" || len(url) > VerifierURLLen {
		return newValidationError("url", "deve ter entre 1 e 128 caracteres")
	}
	return nil
}

// ValidateVerificationDetails valida o laudo de verificação.
func ValidateVerificationDetails(d *VerificationDetails) error {
	if len(d.Method) > MethodLen {
		return newValidationError("verification_method", "excede 32 caracteres")
	}
	if len(d.Notes) > NotesLen {
		return newValidationError("verification_notes", "excede 256 caracteres")
	}
	return nil
}
