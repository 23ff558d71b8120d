package config

const (
	// Powers-of-tau file used as input to the groth16 setup. The checksum
	// pins the exact file; a mismatch aborts procurement.
	PtauFileName = "powersOfTau28_hez_final_21.ptau"
	PtauURL      = "https://storage.googleapis.com/zkevm/ptau/powersOfTau28_hez_final_21.ptau"
	PtauChecksum = "cdc7c94a6635bc91466d8c7d96faefe1d17ecc98a3596a748ca1e6c895f8c2b4"

	// Google Cloud Storage bucket caching testing setups, keyed by circuit
	// checksum.
	CacheProject = "keyless-data-staging"
	CacheBucket  = "keyless-zk-testing"

	// GitHub repository whose releases carry the trusted-setup ceremony
	// artifacts.
	ReleaseOwner = "keyless-zk"
	ReleaseRepo  = "zk-proofs"
)

// Setup artifact file names. A complete setup has the three base files and
// at least one full witness-generation flavor.
const (
	ProverKeyFile       = "prover_key.zkey"
	VerificationKeyFile = "verification_key.json"
	CircuitConfigFile   = "circuit_config.yml"

	WitnessGenCBinary = "main_c"
	WitnessGenCData   = "main_c.dat"

	WitnessGenWasmScript     = "generate_witness.js"
	WitnessGenWasmCalculator = "witness_calculator.js"
	WitnessGenWasmModule     = "main.wasm"
)

// BaseAssets are the release assets every ceremony download needs.
var BaseAssets = []string{ProverKeyFile, VerificationKeyFile, CircuitConfigFile}

// WitnessGenCAssets are the extra assets for the native witness generator.
var WitnessGenCAssets = []string{WitnessGenCBinary, WitnessGenCData}

// WitnessGenWasmAssets are the extra assets for the WASM witness generator.
var WitnessGenWasmAssets = []string{
	WitnessGenWasmScript,
	WitnessGenWasmCalculator,
	WitnessGenWasmModule,
}
