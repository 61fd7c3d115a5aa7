package events

// Publisher exposes one typed method per step kind so callers never build
// the StepKind/data pairing by hand — the same convention as the
// teacher's EventPublisher (one public method per timeline event type).
type Publisher struct {
	stream *EventStream
}

// NewPublisher wraps an EventStream with typed emit helpers.
func NewPublisher(stream *EventStream) *Publisher {
	return &Publisher{stream: stream}
}

func (p *Publisher) Confirmed(question string) {
	p.stream.Emit(StepConfirmed, map[string]any{"question": question})
}

func (p *Publisher) TaskState(state string) {
	p.stream.Emit(StepTaskState, map[string]any{"state": state})
}

func (p *Publisher) Streaming(chunk string) {
	p.stream.Emit(StepStreaming, map[string]any{"chunk": chunk})
}

func (p *Publisher) DecomposeText(chunk string) {
	p.stream.Emit(StepDecomposeText, map[string]any{"chunk": chunk})
}

func (p *Publisher) ToSubTasks(subTasks any, delta any, isFinal bool, summaryTask string) {
	p.stream.Emit(StepToSubTasks, map[string]any{
		"sub_tasks":       subTasks,
		"delta_sub_tasks": delta,
		"is_final":        isFinal,
		"summary_task":    summaryTask,
	})
}

func (p *Publisher) AssignTask(assigneeID, taskID, content, state string) {
	p.stream.Emit(StepAssignTask, map[string]any{
		"assignee_id": assigneeID,
		"task_id":     taskID,
		"content":     content,
		"state":       state,
	})
}

func (p *Publisher) CreateAgent(agentID, name string) {
	p.stream.Emit(StepCreateAgent, map[string]any{"agent_id": agentID, "name": name})
}

func (p *Publisher) ActivateAgent(agentID, taskID string) {
	p.stream.Emit(StepActivateAgent, map[string]any{"agent_id": agentID, "task_id": taskID})
}

func (p *Publisher) DeactivateAgent(agentID, message string, tokens int) {
	p.stream.Emit(StepDeactivateAgent, map[string]any{
		"agent_id": agentID,
		"message":  message,
		"tokens":   tokens,
	})
}

func (p *Publisher) ActivateToolkit(toolkitName, methodName, argsPreview string) {
	p.stream.Emit(StepActivateToolkit, map[string]any{
		"toolkit_name": toolkitName,
		"method_name":  methodName,
		"args_preview": argsPreview,
	})
}

func (p *Publisher) DeactivateToolkit(toolkitName, methodName, resultPreview string, isError bool) {
	p.stream.Emit(StepDeactivateToolkit, map[string]any{
		"toolkit_name":   toolkitName,
		"method_name":    methodName,
		"result_preview": resultPreview,
		"is_error":       isError,
	})
}

func (p *Publisher) Artifact(a ArtifactEvent) {
	p.stream.Emit(StepArtifact, a)
}

func (p *Publisher) AskUser(requestID, tier, humanQuestion, detail, toolkitName, methodName, agentName, processTaskID string) {
	p.stream.Emit(StepAskUser, map[string]any{
		"request_id":      requestID,
		"tier":            tier,
		"human_question":  humanQuestion,
		"detail":          detail,
		"toolkit_name":    toolkitName,
		"method_name":     methodName,
		"agent_name":      agentName,
		"process_task_id": processTaskID,
	})
}

func (p *Publisher) Notice(message string) {
	p.stream.Emit(StepNotice, map[string]any{"message": message})
}

func (p *Publisher) Error(errMsg string) {
	p.stream.Emit(StepError, map[string]any{"error": errMsg})
}

func (p *Publisher) TurnCancelled(reason string) {
	p.stream.Emit(StepTurnCancelled, map[string]any{"reason": reason})
}

func (p *Publisher) End(result string, extra map[string]any) {
	data := map[string]any{"result": result}
	for k, v := range extra {
		data[k] = v
	}
	p.stream.Emit(StepEnd, data)
}

func (p *Publisher) ContextTooLong(detail string) {
	p.stream.Emit(StepContextTooLong, map[string]any{"detail": detail})
}
