package metrics

const (
	LabelSubsystem = "subsystem"
	LabelResult    = "result"
)

const (
	namespaceValidator = "validator"
	subsystemJournal   = "journal"
	subsystemChain     = "chain"
	subsystemPublisher = "publisher"
	subsystemCache     = "block_cache"
)

const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
)

const (
	SubsystemPublisher       = "block_publisher"
	SubsystemChainController = "chain_controller"
)
