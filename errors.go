/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Gameplay failures surfaced to the acting client only; none of these may
// take down a room.
var (
	errRoomNotFound        = errors.New("room not found")
	errGameAlreadyStarted  = errors.New("the game has already started")
	errRoomFull            = errors.New("the room is full")
	errNicknameTaken       = errors.New("that nickname is already in use")
	errInsufficientPlayers = errors.New("at least 3 players are needed")
	errNotYourPrivilege    = errors.New("only the impostor can do that")
	errAlreadyLast         = errors.New("you are already last, you cannot pass again")
	errWrongPhase          = errors.New("that action is not allowed right now")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
