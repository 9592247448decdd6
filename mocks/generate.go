package mocks

//go:generate mockgen -destination=./mock_connector.go -package=mocks github.com/superalgorithm/superalgorithm/internal/exchange Connector
//go:generate mockgen -destination=./mock_data_provider.go -package=mocks github.com/superalgorithm/superalgorithm/internal/marketdata DataProvider
