package config

// NewRulesForTest creates a Rules config for testing purposes
func NewRulesForTest(configPath string) *Rules {
	return &Rules{configPath: configPath}
}

// NewRiskForTest creates a Risk config for testing purposes
func NewRiskForTest(mediumThreshold, highThreshold float64) *Risk {
	return &Risk{
		mediumThreshold: mediumThreshold,
		highThreshold:   highThreshold,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, databaseID string) *Repository {
	return &Repository{
		backend:    backend,
		projectID:  projectID,
		databaseID: databaseID,
	}
}
