package config

import (
	"time"
)

type CommissionConfig struct {
	TauxCommission            float64       `yaml:"taux_commission"`
	MaxTentativesPrelevement  int           `yaml:"max_tentatives_prelevement"`
	FenetreAnnulationPaiement time.Duration `yaml:"fenetre_annulation_paiement"`
	MontantRechargeMinimum    float64       `yaml:"montant_recharge_minimum"`
	MontantRechargeMaximum    float64       `yaml:"montant_recharge_maximum"`
	PlafondRechargeJournalier float64       `yaml:"plafond_recharge_journalier"`
	MaxRechargesParJour       int           `yaml:"max_recharges_par_jour"`
	TauxFraisRecharge         float64       `yaml:"taux_frais_recharge"`
	FraisRechargeMinimum      float64       `yaml:"frais_recharge_minimum"`
	FenetreAnnulationRecharge time.Duration `yaml:"fenetre_annulation_recharge"`
	DelaiExpirationRecharge   time.Duration `yaml:"delai_expiration_recharge"`
	SeuilMinimumDefaut        float64       `yaml:"seuil_minimum_defaut"`
}

func loadCommissionConfig() *CommissionConfig {
	return &CommissionConfig{
		TauxCommission:            getEnvAsFloat64("COMMISSION_TAUX", 0.10),
		MaxTentativesPrelevement:  getEnvAsInt("COMMISSION_MAX_TENTATIVES", 5),
		FenetreAnnulationPaiement: getEnvAsDuration("PAIEMENT_FENETRE_ANNULATION", 15*time.Minute),
		MontantRechargeMinimum:    getEnvAsFloat64("RECHARGE_MONTANT_MINIMUM", 1000),
		MontantRechargeMaximum:    getEnvAsFloat64("RECHARGE_MONTANT_MAXIMUM", 1000000),
		PlafondRechargeJournalier: getEnvAsFloat64("RECHARGE_PLAFOND_JOURNALIER", 500000),
		MaxRechargesParJour:       getEnvAsInt("RECHARGE_MAX_PAR_JOUR", 5),
		TauxFraisRecharge:         getEnvAsFloat64("RECHARGE_TAUX_FRAIS", 0.02),
		FraisRechargeMinimum:      getEnvAsFloat64("RECHARGE_FRAIS_MINIMUM", 50),
		FenetreAnnulationRecharge: getEnvAsDuration("RECHARGE_FENETRE_ANNULATION", 30*time.Minute),
		DelaiExpirationRecharge:   getEnvAsDuration("RECHARGE_DELAI_EXPIRATION", 2*time.Hour),
		SeuilMinimumDefaut:        getEnvAsFloat64("RECHARGE_SEUIL_MINIMUM", 1000),
	}
}
