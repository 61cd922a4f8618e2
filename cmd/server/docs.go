// Package main WorldBoard Server API
//
//	@title						WorldBoard Server API
//	@version					1.0
//	@description				Shared worlds with members, invites and an ordered task list.
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@tag.name					Worlds
//	@tag.description			World lifecycle and settings
//
//	@tag.name					Members
//	@tag.description			Membership, kicking and leaving
//
//	@tag.name					Invites
//	@tag.description			Pending invites of the caller
//
//	@tag.name					Tasks
//	@tag.description			Task list and reordering
//
//	@tag.name					Profiles
//	@tag.description			Display profiles from the identity provider
package main
