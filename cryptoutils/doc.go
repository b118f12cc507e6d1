// Package cryptoutils holds the secp256k1 task keys used to talk to a worker.
//
// Task arguments are ECIES-encrypted to the worker's public key and task
// outputs are encrypted back to the submitter's key. DeriveTaskKey derives a
// stable key from a seed with Argon2id, so outputs of earlier submissions stay
// readable after a restart.
package cryptoutils
