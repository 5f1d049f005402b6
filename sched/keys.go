package sched

import "fmt"

// Key layout, one flat namespace per job:
//
//	stint:job:{name}:lifecycle   current State string
//	stint:job:{name}:type        registered job type for resumption
//	stint:job:{name}:params      sanitized params, JSON
//	stint:job:{name}:checkpoint  encoded checkpoint
//	stint:job:{name}:progress    progress record, JSON
//	stint:job:{name}:run         run ID of the latest invocation
//	stint:job:{name}:trigger     pending trigger ID
//	stint:trigger:{id}           reverse link, trigger ID -> job name
//	stint:jobs                   JSON list of known job names

const keyJobIndex = "stint:jobs"

func keyLifecycle(name string) string  { return fmt.Sprintf("stint:job:%s:lifecycle", name) }
func keyType(name string) string       { return fmt.Sprintf("stint:job:%s:type", name) }
func keyParams(name string) string     { return fmt.Sprintf("stint:job:%s:params", name) }
func keyCheckpoint(name string) string { return fmt.Sprintf("stint:job:%s:checkpoint", name) }
func keyProgress(name string) string   { return fmt.Sprintf("stint:job:%s:progress", name) }
func keyRun(name string) string        { return fmt.Sprintf("stint:job:%s:run", name) }
func keyTrigger(name string) string    { return fmt.Sprintf("stint:job:%s:trigger", name) }

func keyTriggerJob(triggerID string) string { return "stint:trigger:" + triggerID }
