package acronym

import "github.com/John-Robertt/acrofind/internal/domain"

func domainAcr(s string) domain.Acronym { return domain.NormalizeAcronym(s) }
