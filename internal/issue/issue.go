// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ContainerEngineNotFoundId Id = iota + 1
	DescriptorMalformedId
	BuildFailedId
	StartupFailedId
	ExecutionFailedId
	ScaffoldingFailedId
	InvalidAnswersId
	ConfigLoadFailedId
	ProjectConfigFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine found!

launchpad drives the project stack through ` + "`docker compose`" + ` or ` + "`podman compose`" + `,
and neither could be found or reached.

## Things you can try:
- Install Docker (with the compose plugin) or Podman
- Make sure the daemon/socket is running:
~~~
$ docker info
$ podman info
~~~

- Pick the engine explicitly:
~~~
$ launchpad config set container_engine podman
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/compose/install/", "https://podman.io/docs/installation"},
	}

	descriptorMalformedIssue = &Issue{
		id: DescriptorMalformedId,
		mdMsg: `
# The compose descriptor is malformed!

The payload's ` + "`dev/docker-compose.yml`" + ` is not valid YAML, has no ` + "`services`" + ` mapping,
or a service depends on a service that does not exist.

## Things you can try:
- Check the line reported above
- If you use a custom payload (` + "`payload_dir`" + `), compare it with the embedded one:
~~~
$ launchpad config set payload_dir ""
~~~

- List the services launchpad sees:
~~~
$ launchpad services
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Image build failed!

The first, clean build of the stack exited with an error. Nothing was installed yet.

## Things you can try:
- Read the engine output above; the last lines usually name the failing step
- Check network access from the build (package mirrors, registries)
- Re-run with verbose output to stream the whole build:
~~~
$ launchpad --verbose initialize
~~~`,
	}

	startupFailedIssue = &Issue{
		id: StartupFailedId,
		mdMsg: `
# The stack did not start!

` + "`compose up -d`" + ` reported a failure.

## Common causes:
- A published port is already in use; change the network port prefix
- A container exits right away; inspect its logs
- The network name clashes with another project

## Things you can try:
~~~
$ docker compose -p <network> ps
$ docker compose -p <network> logs <service>
~~~`,
	}

	executionFailedIssue = &Issue{
		id: ExecutionFailedId,
		mdMsg: `
# A provisioning task failed inside a container!

A recipe (composer install, application install, search setup) returned a non-zero status.

## Things you can try:
- Read the captured output above
- For private packages, check the HTTP basic credentials stored in ` + "`.launchpad.yml`" + `
- Re-run ` + "`launchpad initialize`" + `: composer and the installer are safe to run again`,
	}

	scaffoldingFailedIssue = &Issue{
		id: ScaffoldingFailedId,
		mdMsg: `
# Could not write the provisioning folder!

launchpad failed to copy, modify or remove files under the provisioning folder.

## Things you can try:
- Check that you own the project directory
- Make sure no container holds files in the folder with a different owner
- Remove the provisioning folder and run ` + "`launchpad initialize`" + ` again`,
	}

	invalidAnswersIssue = &Issue{
		id: InvalidAnswersId,
		mdMsg: `
# Invalid provisioning answers!

The answers used to initialize the project are incomplete or inconsistent.

## Things you can try:
- Provide a network name and a positive port prefix:
~~~
$ launchpad initialize --network-name acme --network-port 42
~~~

- Give every HTTP basic credential a host:
~~~
$ launchpad initialize --http-basic ez=updates.ez.no,login,password
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

launchpad could not read its configuration file.

## Things you can try:
- Show where the configuration is read from:
~~~
$ launchpad config path
~~~

- Re-create a default configuration:
~~~
$ launchpad config init
~~~`,
	}

	projectConfigFailedIssue = &Issue{
		id: ProjectConfigFailedId,
		mdMsg: `
# Failed to read or write project settings!

The project settings file ` + "`.launchpad.yml`" + ` (or ` + "`~/.launchpad.yml`" + `) could not be used.

## Things you can try:
- Check the YAML syntax of both files
- Check the file permissions`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Things you can try:
- Check file/directory permissions of the project
- For containers, ensure you're in the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~

- Use rootless containers with Podman`,
	}

	issues = map[Id]*Issue{
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		descriptorMalformedIssue.Id():     descriptorMalformedIssue,
		buildFailedIssue.Id():             buildFailedIssue,
		startupFailedIssue.Id():           startupFailedIssue,
		executionFailedIssue.Id():         executionFailedIssue,
		scaffoldingFailedIssue.Id():       scaffoldingFailedIssue,
		invalidAnswersIssue.Id():          invalidAnswersIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		projectConfigFailedIssue.Id():     projectConfigFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	ids := make([]Id, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
