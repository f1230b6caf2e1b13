package mocks

//go:generate mockgen -destination=./mock_kline_source.go -package=mocks github.com/rxtech-lab/argo-pulse/pkg/marketdata/candles KlineSource
//go:generate mockgen -destination=./mock_dialer.go -package=mocks github.com/rxtech-lab/argo-pulse/pkg/marketdata/stream Dialer
