package domain

import "errors"

var ErrDuplicateUser = errors.New("user already registered")
var ErrAuthFailure = errors.New("unknown user or wrong password")
var ErrUnknownUser = errors.New("user not registered")
var ErrNotLoggedIn = errors.New("no logged-in user on this connection")
var ErrProjectNotFound = errors.New("project not found")
var ErrDuplicateProject = errors.New("project name already in use")
var ErrNotAMember = errors.New("caller is not a member of the project")
var ErrAlreadyMember = errors.New("user is already a member of the project")
var ErrDuplicateCard = errors.New("card already present in the project")
var ErrCardNotFound = errors.New("card not found")
var ErrInvalidTransition = errors.New("card move not allowed")
var ErrProjectNotEmpty = errors.New("project still has unfinished cards")
var ErrUnknownList = errors.New("unknown card list")
