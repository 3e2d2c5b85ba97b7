// Package commands defines the gateway CLI and wires a connection for subcommands.
//
// Commands
//
//   - keygen         Generate a key pair and write it to key files
//   - pubkey         Look up (and cache) the public key of an identity
//   - credits        Print the remaining message credits
//   - capabilities   Print what an identity's client can receive
//   - send text      Send a text message
//   - send image     Send an image (legacy image message)
//   - send video     Send a video with thumbnail
//   - send file      Send a file, optionally with thumbnail and caption
//
// # Implementation
//
// Configuration comes from GATEWAY_* variables (and an optional .env file);
// persistent flags override them. Commands that talk to the gateway open a
// connection with app.With so it is closed on every path, and run under a
// context cancelled on SIGINT.
package commands
