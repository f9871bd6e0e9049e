package policy

import "bookstock/internal/domain"

// LowInitialStock é o estoque inicial abaixo do qual a criação recebe aviso.
const LowInitialStock = 10

// EvaluateProductCreation aplica a política de criação de produto.
// Só rejeita quando um fornecedor é informado e não existe (supplier nil);
// as demais regras apenas geram avisos.
func EvaluateProductCreation(req domain.CreateProductRequest, supplier *domain.Supplier) Decision {
	var warnings []domain.Warning

	if req.SupplierID != "" {
		if supplier == nil {
			return reject(ReasonSupplierNotFound, req.SupplierID)
		}
	} else {
		warnings = append(warnings, domain.NewWarning(domain.WarnNoSupplier))
	}

	if req.StockQuantity < LowInitialStock {
		warnings = append(warnings, domain.NewCountWarning(domain.WarnLowInitialStock, "stock_quantity", req.StockQuantity))
	}

	if req.Price == nil || !req.Price.IsPositive() {
		warnings = append(warnings, domain.NewWarning(domain.WarnMissingPrice))
	}

	return accept(warnings)
}
