package mocks

//go:generate mockgen -source=../chatbot/provider.go -destination=./chatbot_provider_mocks.go -package=mocks
//go:generate mockgen -source=../storage/bucket.go -destination=./storage_bucket_mocks.go -package=mocks

// Generated gomock mocks live next to the hand-written testify mocks in
// this package.
